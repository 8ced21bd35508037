// Package audit persists security-relevant and data-changing events so the
// admin view can list them.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/models"
)

// Event types
const (
	EventSignup        = "auth.signup"
	EventLogin         = "auth.login"
	EventLogout        = "auth.logout"
	EventCompanyCreate = "company.create"
	EventCompanyUpdate = "company.update"
	EventCompanyDelete = "company.delete"
	EventAppCreate     = "application.create"
	EventAppUpdate     = "application.update"
	EventAppDelete     = "application.delete"
	EventContactCreate = "contact.create"
	EventContactUpdate = "contact.update"
	EventContactDelete = "contact.delete"
	EventUserEnable    = "admin.user_enable"
	EventUserDisable   = "admin.user_disable"
	EventUserDelete    = "admin.user_delete"
)

// Event is one audit record before it is persisted
type Event struct {
	Type     string
	UserID   string
	Username string
	IP       string
	Success  bool
	Detail   string
}

// Recorder writes audit events to the database
type Recorder struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewRecorder(db *gorm.DB, logger zerolog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record persists the event. A failed write is logged and otherwise ignored;
// auditing never fails the request that triggered it.
func (r *Recorder) Record(ctx context.Context, e Event) {
	row := models.AuditLog{
		EventType: e.Type,
		UserID:    e.UserID,
		Username:  e.Username,
		IP:        e.IP,
		Success:   e.Success,
		Detail:    e.Detail,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error().Err(err).Str("event_type", e.Type).Msg("Failed to record audit event")
	}
}

// Page is one page of audit logs, newest first
type Page struct {
	Entries []models.AuditLog `json:"entries"`
	Total   int64             `json:"total"`
}

// List returns audit logs newest first. eventType filters when non-empty.
func (r *Recorder) List(ctx context.Context, eventType string, limit, offset int) (*Page, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var page Page
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	// ULIDs sort by creation time, which breaks ties within the same timestamp
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&page.Entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return &page, nil
}

// Cursor is a position in the newest-first ordering of audit logs
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAt returns the position of entry
func CursorAt(entry models.AuditLog) *Cursor {
	return &Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
}

// ListBefore returns up to limit logs strictly older than cursor, newest
// first. A nil cursor starts at the newest log. Rows written after the walk
// began sort ahead of the cursor and never shift later batches.
func (r *Recorder) ListBefore(ctx context.Context, cursor *Cursor, limit int) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.AuditLog
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

// Prune deletes audit logs created before cutoff
func (r *Recorder) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
