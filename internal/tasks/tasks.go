package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypePurgeRevokedTokens = "maintenance:purge_revoked_tokens"
	TypePruneAuditLogs     = "maintenance:prune_audit_logs"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	// Cutoff is the instant before which records are removed
	Cutoff time.Time `json:"cutoff"`
}

// NewPurgeRevokedTokensTask creates a task removing revocations that expired before cutoff
func NewPurgeRevokedTokensTask(cutoff time.Time) (*asynq.Task, error) {
	return newTask(TypePurgeRevokedTokens, cutoff)
}

// NewPruneAuditLogsTask creates a task removing audit logs older than cutoff
func NewPruneAuditLogsTask(cutoff time.Time) (*asynq.Task, error) {
	return newTask(TypePruneAuditLogs, cutoff)
}

func newTask(typename string, cutoff time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{Cutoff: cutoff.UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(typename, payload, asynq.Queue("low"), asynq.MaxRetry(3)), nil
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Cutoff.IsZero() {
		return payload, fmt.Errorf("payload has no cutoff")
	}
	return payload, nil
}
