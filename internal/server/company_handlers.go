package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/models"
)

// CreateCompanyRequest represents a company creation request
type CreateCompanyRequest struct {
	Name       string `json:"name" binding:"required,max=120"`
	Address    string `json:"address" binding:"max=250"`
	WebsiteURL string `json:"website_url" binding:"omitempty,url,max=500"`
}

// UpdateCompanyRequest only changes the fields that are present
type UpdateCompanyRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=120"`
	Address    *string `json:"address" binding:"omitempty,max=250"`
	WebsiteURL *string `json:"website_url" binding:"omitempty,max=500"`
}

// findOwnedCompany loads a company belonging to the caller. It writes the
// error response itself and reports whether the handler should continue.
func (s *Server) findOwnedCompany(c *gin.Context, companyID string) (*models.Company, bool) {
	sessionData, _ := GetSessionData(c)

	var company models.Company
	err := s.db.Where("id = ? AND user_id = ?", companyID, sessionData.UserID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to find company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &company, true
}

// @Summary List companies
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Company
// @Router /api/companies [get]
func (s *Server) listCompanies(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	companies := []models.Company{}
	if err := s.db.Where("user_id = ?", sessionData.UserID).Order("name ASC").Find(&companies).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list companies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, companies)
}

// @Summary Create company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCompanyRequest true "Company"
// @Success 201 {object} models.Company
// @Router /api/companies [post]
func (s *Server) createCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)
	company := models.Company{
		Name:       req.Name,
		Address:    req.Address,
		WebsiteURL: req.WebsiteURL,
		UserID:     sessionData.UserID,
	}
	if err := s.db.Create(&company).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventCompanyCreate, Success: true, Detail: company.ID})
	c.JSON(http.StatusCreated, company)
}

// @Summary Get company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} models.Company
// @Failure 404 {object} map[string]interface{}
// @Router /api/companies/{id} [get]
func (s *Server) getCompany(c *gin.Context) {
	company, ok := s.findOwnedCompany(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, company)
}

// @Summary Update company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param request body UpdateCompanyRequest true "Fields to change"
// @Success 200 {object} models.Company
// @Router /api/companies/{id} [put]
func (s *Server) updateCompany(c *gin.Context) {
	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := s.findOwnedCompany(c, c.Param("id"))
	if !ok {
		return
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.WebsiteURL != nil {
		company.WebsiteURL = *req.WebsiteURL
	}

	if err := s.db.Save(company).Error; err != nil {
		s.logger.Error().Err(err).Str("company_id", company.ID).Msg("Failed to update company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update company"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventCompanyUpdate, Success: true, Detail: company.ID})
	c.JSON(http.StatusOK, company)
}

// @Summary Delete company
// @Description Deletes the company with its applications and contacts
// @Tags companies
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 204
// @Router /api/companies/{id} [delete]
func (s *Server) deleteCompany(c *gin.Context) {
	company, ok := s.findOwnedCompany(c, c.Param("id"))
	if !ok {
		return
	}

	if err := deleteCompanyTree(s.db, []string{company.ID}); err != nil {
		s.logger.Error().Err(err).Str("company_id", company.ID).Msg("Failed to delete company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete company"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventCompanyDelete, Success: true, Detail: company.ID})
	c.Status(http.StatusNoContent)
}

// deleteCompanyTree removes companies and their children in one transaction.
// Children are deleted explicitly so the result does not depend on the
// database enforcing foreign keys.
func deleteCompanyTree(db *gorm.DB, companyIDs []string) error {
	if len(companyIDs) == 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id IN ?", companyIDs).Delete(&models.JobApplication{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id IN ?", companyIDs).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", companyIDs).Delete(&models.Company{}).Error
	})
}

// @Summary List applications of a company
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {array} models.JobApplication
// @Router /api/companies/{id}/applications [get]
func (s *Server) listCompanyApplications(c *gin.Context) {
	company, ok := s.findOwnedCompany(c, c.Param("id"))
	if !ok {
		return
	}

	applications := []models.JobApplication{}
	if err := s.db.Where("company_id = ?", company.ID).Order("created_at DESC").Find(&applications).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list applications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// @Summary List contacts of a company
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {array} models.Contact
// @Router /api/companies/{id}/contacts [get]
func (s *Server) listCompanyContacts(c *gin.Context) {
	company, ok := s.findOwnedCompany(c, c.Param("id"))
	if !ok {
		return
	}

	contacts := []models.Contact{}
	if err := s.db.Where("company_id = ?", company.ID).Order("name ASC").Find(&contacts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list contacts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, contacts)
}
