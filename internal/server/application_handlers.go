package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/models"
)

// CreateApplicationRequest represents a job application creation request
type CreateApplicationRequest struct {
	JobTitle        string     `json:"job_title" binding:"required,max=200"`
	CompanyID       string     `json:"company_id" binding:"required"`
	Status          string     `json:"status" binding:"max=50"`
	ApplicationDate *time.Time `json:"application_date"`
	Notes           string     `json:"notes"`
	JobURL          string     `json:"job_url" binding:"omitempty,max=500"`
}

// UpdateApplicationRequest only changes the fields that are present
type UpdateApplicationRequest struct {
	JobTitle        *string    `json:"job_title" binding:"omitempty,min=1,max=200"`
	Status          *string    `json:"status" binding:"omitempty,min=1,max=50"`
	ApplicationDate *time.Time `json:"application_date"`
	Notes           *string    `json:"notes"`
	JobURL          *string    `json:"job_url" binding:"omitempty,max=500"`
}

func (s *Server) findOwnedApplication(c *gin.Context, applicationID string) (*models.JobApplication, bool) {
	sessionData, _ := GetSessionData(c)

	var application models.JobApplication
	err := s.db.
		Joins("JOIN companies ON companies.id = job_applications.company_id").
		Where("job_applications.id = ? AND companies.user_id = ?", applicationID, sessionData.UserID).
		First(&application).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("application_id", applicationID).Msg("Failed to find application")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &application, true
}

// @Summary Create application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateApplicationRequest true "Application"
// @Success 201 {object} models.JobApplication
// @Failure 404 {object} map[string]interface{}
// @Router /api/applications [post]
func (s *Server) createApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := s.findOwnedCompany(c, req.CompanyID)
	if !ok {
		return
	}

	application := models.JobApplication{
		JobTitle:        req.JobTitle,
		Status:          req.Status,
		ApplicationDate: req.ApplicationDate,
		Notes:           req.Notes,
		JobURL:          req.JobURL,
		CompanyID:       company.ID,
	}
	if err := s.db.Create(&application).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create application")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventAppCreate, Success: true, Detail: application.ID})
	c.JSON(http.StatusCreated, application)
}

// @Summary Get application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} models.JobApplication
// @Router /api/applications/{id} [get]
func (s *Server) getApplication(c *gin.Context) {
	application, ok := s.findOwnedApplication(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, application)
}

// @Summary Update application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body UpdateApplicationRequest true "Fields to change"
// @Success 200 {object} models.JobApplication
// @Router /api/applications/{id} [put]
func (s *Server) updateApplication(c *gin.Context) {
	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, ok := s.findOwnedApplication(c, c.Param("id"))
	if !ok {
		return
	}

	if req.JobTitle != nil {
		application.JobTitle = *req.JobTitle
	}
	if req.Status != nil {
		application.Status = *req.Status
	}
	if req.ApplicationDate != nil {
		application.ApplicationDate = req.ApplicationDate
	}
	if req.Notes != nil {
		application.Notes = *req.Notes
	}
	if req.JobURL != nil {
		application.JobURL = *req.JobURL
	}
	// Moving to Applied without a date stamps it, same as on creation
	if application.Status == models.StatusApplied && application.ApplicationDate == nil {
		now := time.Now().UTC()
		application.ApplicationDate = &now
	}

	if err := s.db.Save(application).Error; err != nil {
		s.logger.Error().Err(err).Str("application_id", application.ID).Msg("Failed to update application")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventAppUpdate, Success: true, Detail: application.ID})
	c.JSON(http.StatusOK, application)
}

// @Summary Delete application
// @Tags applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Router /api/applications/{id} [delete]
func (s *Server) deleteApplication(c *gin.Context) {
	application, ok := s.findOwnedApplication(c, c.Param("id"))
	if !ok {
		return
	}

	if err := s.db.Delete(application).Error; err != nil {
		s.logger.Error().Err(err).Str("application_id", application.ID).Msg("Failed to delete application")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete application"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventAppDelete, Success: true, Detail: application.ID})
	c.Status(http.StatusNoContent)
}
