package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/models"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 500
	exportBatchSize    = 500
)

// SetUserStatusRequest enables or disables an account
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active disabled"`
}

// findManagedUser loads a user that the calling admin is allowed to change:
// not themselves and not another admin.
func (s *Server) findManagedUser(c *gin.Context, userID string) (*models.User, bool) {
	sessionData, _ := GetSessionData(c)

	if userID == sessionData.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own account"})
		return nil, false
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	if user.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change another admin"})
		return nil, false
	}

	return &user, true
}

// @Summary List users
// @Description List all users (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserDetail
// @Failure 403 {object} map[string]interface{}
// @Router /api/admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	userDetails := make([]UserDetail, len(users))
	for i := range users {
		userDetails[i] = newUserDetail(&users[i])
	}

	c.JSON(http.StatusOK, userDetails)
}

// @Summary Set user status
// @Description Enable or disable an account (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body SetUserStatusRequest true "New status"
// @Success 200 {object} UserDetail
// @Router /api/admin/users/{id}/status [post]
func (s *Server) setUserStatus(c *gin.Context) {
	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := s.findManagedUser(c, c.Param("id"))
	if !ok {
		return
	}

	if err := s.db.Model(user).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update user status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	user.Status = req.Status

	eventType := audit.EventUserEnable
	if req.Status == models.UserDisabled {
		eventType = audit.EventUserDisable
	}
	s.logger.Info().Str("user_id", user.ID).Str("status", req.Status).Msg("User status changed")
	s.recordEvent(c, audit.Event{Type: eventType, Success: true, Detail: user.Username})

	c.JSON(http.StatusOK, newUserDetail(user))
}

// @Summary Delete user
// @Description Delete a user and everything they own (admin only)
// @Tags admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /api/admin/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	user, ok := s.findManagedUser(c, c.Param("id"))
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var companyIDs []string
		if err := tx.Model(&models.Company{}).Where("user_id = ?", user.ID).Pluck("id", &companyIDs).Error; err != nil {
			return err
		}
		if err := deleteCompanyTree(tx, companyIDs); err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User deleted")
	s.recordEvent(c, audit.Event{Type: audit.EventUserDelete, Success: true, Detail: user.Username})

	c.Status(http.StatusNoContent)
}

// @Summary List audit logs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param event_type query string false "Filter by event type"
// @Success 200 {object} audit.Page
// @Router /api/admin/logs [get]
func (s *Server) listAuditLogs(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultLogPageSize)
	if err != nil || limit <= 0 || limit > maxLogPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxLogPageSize)})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	page, err := s.audit.List(c.Request.Context(), c.Query("event_type"), limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// @Summary Export audit logs
// @Description Download the whole audit log as CSV
// @Tags admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /api/admin/export-logs [get]
func (s *Server) exportAuditLogs(c *gin.Context) {
	filename := fmt.Sprintf("audit_log_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"timestamp", "event_type", "user_id", "username", "ip", "success", "detail"})

	var cursor *audit.Cursor
	for {
		entries, err := s.audit.ListBefore(c.Request.Context(), cursor, exportBatchSize)
		if err != nil {
			// Headers are already sent; the truncated file is the best we can do
			s.logger.Error().Err(err).Msg("Failed to export audit logs")
			break
		}
		for _, entry := range entries {
			_ = w.Write([]string{
				entry.CreatedAt.UTC().Format(time.RFC3339),
				entry.EventType,
				entry.UserID,
				entry.Username,
				entry.IP,
				strconv.FormatBool(entry.Success),
				entry.Detail,
			})
		}
		if len(entries) < exportBatchSize {
			break
		}
		cursor = audit.CursorAt(entries[len(entries)-1])
	}

	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write audit export")
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
