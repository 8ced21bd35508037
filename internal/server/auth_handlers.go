package server

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/auth"
	"github.com/jobtrack-dev/jobtrack/internal/models"
)

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80,username"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the result of the authentication exchange
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserDetail(user *models.User) UserDetail {
	return UserDetail{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}

// recordEvent fills in the caller's identity and address and writes an audit event
func (s *Server) recordEvent(c *gin.Context, event audit.Event) {
	if sessionData, ok := GetSessionData(c); ok {
		if event.UserID == "" {
			event.UserID = sessionData.UserID
		}
		if event.Username == "" {
			event.Username = sessionData.Username
		}
	}
	event.IP = c.ClientIP()
	s.audit.Record(c.Request.Context(), event)
}

// @Summary Register
// @Description Create an account. The first account becomes an admin.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} UserDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Email = strings.ToLower(req.Email)

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", req.Username, req.Email).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return errDuplicateAccount
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}

		user = models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: passwordHash,
			IsAdmin:      total == 0 || slices.Contains(s.config.Auth.AdminUsernames, req.Username),
			Status:       models.UserActive,
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, errDuplicateAccount) {
		s.recordEvent(c, audit.Event{Type: audit.EventSignup, Username: req.Username, Detail: "duplicate username or email"})
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Bool("is_admin", user.IsAdmin).Msg("User registered")
	s.recordEvent(c, audit.Event{Type: audit.EventSignup, UserID: user.ID, Username: user.Username, Success: true})

	c.JSON(http.StatusCreated, newUserDetail(&user))
}

var errDuplicateAccount = errors.New("duplicate account")

// @Summary Login
// @Description Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordEvent(c, audit.Event{Type: audit.EventLogin, Username: req.Username, Detail: "unknown username"})
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.recordEvent(c, audit.Event{Type: audit.EventLogin, UserID: user.ID, Username: user.Username, Detail: "wrong password"})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if !user.Active() {
		s.recordEvent(c, audit.Event{Type: audit.EventLogin, UserID: user.ID, Username: user.Username, Detail: "account disabled"})
		c.JSON(http.StatusForbidden, gin.H{"error": "Account disabled"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User logged in")
	s.recordEvent(c, audit.Event{Type: audit.EventLogin, UserID: user.ID, Username: user.Username, Success: true})

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
}

// @Summary Logout
// @Description Revoke the presented token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.revocations.Revoke(c.Request.Context(), sessionData.TokenID, sessionData.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	s.recordEvent(c, audit.Event{Type: audit.EventLogout, Success: true})

	c.Status(http.StatusNoContent)
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, newUserDetail(&user))
}
