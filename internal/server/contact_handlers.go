package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/models"
)

// CreateContactRequest represents a contact creation request
type CreateContactRequest struct {
	Name      string `json:"name" binding:"required,max=150"`
	CompanyID string `json:"company_id" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email,max=150"`
	Phone     string `json:"phone" binding:"max=50"`
}

// UpdateContactRequest only changes the fields that are present
type UpdateContactRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=150"`
	Email *string `json:"email" binding:"omitempty,max=150"`
	Phone *string `json:"phone" binding:"omitempty,max=50"`
}

func (s *Server) findOwnedContact(c *gin.Context, contactID string) (*models.Contact, bool) {
	sessionData, _ := GetSessionData(c)

	var contact models.Contact
	err := s.db.
		Joins("JOIN companies ON companies.id = contacts.company_id").
		Where("contacts.id = ? AND companies.user_id = ?", contactID, sessionData.UserID).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("contact_id", contactID).Msg("Failed to find contact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &contact, true
}

// @Summary Create contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateContactRequest true "Contact"
// @Success 201 {object} models.Contact
// @Router /api/contacts [post]
func (s *Server) createContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := s.findOwnedCompany(c, req.CompanyID)
	if !ok {
		return
	}

	contact := models.Contact{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CompanyID: company.ID,
	}
	if err := s.db.Create(&contact).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create contact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventContactCreate, Success: true, Detail: contact.ID})
	c.JSON(http.StatusCreated, contact)
}

// @Summary Update contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Param request body UpdateContactRequest true "Fields to change"
// @Success 200 {object} models.Contact
// @Router /api/contacts/{id} [put]
func (s *Server) updateContact(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact, ok := s.findOwnedContact(c, c.Param("id"))
	if !ok {
		return
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}

	if err := s.db.Save(contact).Error; err != nil {
		s.logger.Error().Err(err).Str("contact_id", contact.ID).Msg("Failed to update contact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventContactUpdate, Success: true, Detail: contact.ID})
	c.JSON(http.StatusOK, contact)
}

// @Summary Delete contact
// @Tags contacts
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 204
// @Router /api/contacts/{id} [delete]
func (s *Server) deleteContact(c *gin.Context) {
	contact, ok := s.findOwnedContact(c, c.Param("id"))
	if !ok {
		return
	}

	if err := s.db.Delete(contact).Error; err != nil {
		s.logger.Error().Err(err).Str("contact_id", contact.ID).Msg("Failed to delete contact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact"})
		return
	}

	s.recordEvent(c, audit.Event{Type: audit.EventContactDelete, Success: true, Detail: contact.ID})
	c.Status(http.StatusNoContent)
}
