package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/revocation"
	"github.com/jobtrack-dev/jobtrack/internal/tasks"
)

// HandlePurgeRevokedTokens drops revocation entries for tokens that have expired;
// the JWT expiry check rejects those tokens on its own.
func HandlePurgeRevokedTokens(ctx context.Context, t *asynq.Task, revocations revocation.Store, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	purged, err := revocations.PurgeExpired(ctx, payload.Cutoff)
	if err != nil {
		return err
	}

	logger.Info().Int64("purged", purged).Time("cutoff", payload.Cutoff).Msg("Purged expired token revocations")
	return nil
}

// HandlePruneAuditLogs deletes audit logs older than the retention window
func HandlePruneAuditLogs(ctx context.Context, t *asynq.Task, recorder *audit.Recorder, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	pruned, err := recorder.Prune(ctx, payload.Cutoff)
	if err != nil {
		return err
	}

	logger.Info().Int64("pruned", pruned).Time("cutoff", payload.Cutoff).Msg("Pruned audit logs")
	return nil
}
