package client

import "time"

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User represents an account as returned by the API
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Company struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	WebsiteURL string    `json:"website_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type CompanyInput struct {
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	WebsiteURL string `json:"website_url,omitempty"`
}

// CompanyUpdate carries the fields to change; nil fields are left alone
type CompanyUpdate struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	WebsiteURL *string `json:"website_url,omitempty"`
}

// Application is a job application attached to a company
type Application struct {
	ID              string     `json:"id"`
	JobTitle        string     `json:"job_title"`
	Status          string     `json:"status"`
	ApplicationDate *time.Time `json:"application_date"`
	Notes           string     `json:"notes"`
	JobURL          string     `json:"job_url"`
	CompanyID       string     `json:"company_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ApplicationInput struct {
	JobTitle        string     `json:"job_title"`
	CompanyID       string     `json:"company_id"`
	Status          string     `json:"status,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	JobURL          string     `json:"job_url,omitempty"`
}

type ApplicationUpdate struct {
	JobTitle        *string    `json:"job_title,omitempty"`
	Status          *string    `json:"status,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	JobURL          *string    `json:"job_url,omitempty"`
}

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CompanyID string    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactInput struct {
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type ContactUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type AuditLog struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	IP        string    `json:"ip"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail"`
}

type AuditPage struct {
	Entries []AuditLog `json:"entries"`
	Total   int64      `json:"total"`
}
