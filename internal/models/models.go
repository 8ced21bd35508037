package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Application statuses. Any other string is accepted and stored as-is.
const (
	StatusToApply = "To Apply"
	StatusApplied = "Applied"
)

// Account statuses
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config is the singleton row holding deployment-wide settings
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// User represents a registered account
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"unique;not null"`
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	Status       string    `json:"status" gorm:"not null;default:'active'"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Companies []Company `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the account may authenticate
func (u *User) Active() bool {
	return u.Status != UserDisabled
}

// Company is a prospective employer tracked by a user
type Company struct {
	BaseModel
	Name       string `json:"name" gorm:"not null"`
	Address    string `json:"address"`
	WebsiteURL string `json:"website_url"`
	UserID     string `json:"user_id" gorm:"not null;index"`

	Applications []JobApplication `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Contacts     []Contact        `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// JobApplication is a single application to a company
type JobApplication struct {
	BaseModel
	JobTitle        string     `json:"job_title" gorm:"not null"`
	Status          string     `json:"status" gorm:"not null;default:'To Apply'"`
	ApplicationDate *time.Time `json:"application_date"`
	Notes           string     `json:"notes" gorm:"type:text"`
	JobURL          string     `json:"job_url"`
	CompanyID       string     `json:"company_id" gorm:"not null;index"`
}

// BeforeCreate fills in the status default and stamps the application date
// when the application is created as already applied.
func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusToApply
	}
	if a.ApplicationDate == nil && a.Status == StatusApplied {
		now := time.Now().UTC()
		a.ApplicationDate = &now
	}
	return a.BaseModel.BeforeCreate(tx)
}

// Contact is a person at a company
type Contact struct {
	BaseModel
	Name      string `json:"name" gorm:"not null"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CompanyID string `json:"company_id" gorm:"not null;index"`
}

// AuditLog records a security-relevant or data-changing event
type AuditLog struct {
	BaseModel
	EventType string `json:"event_type" gorm:"not null;index"`
	UserID    string `json:"user_id" gorm:"index"`
	Username  string `json:"username"`
	IP        string `json:"ip"`
	Success   bool   `json:"success"`
	Detail    string `json:"detail" gorm:"type:text"`
}

// RevokedToken is a logged-out token, kept until it would have expired anyway
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;type:varchar(64)"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Config{}, &User{}, &Company{}, &JobApplication{}, &Contact{}, &AuditLog{}, &RevokedToken{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
