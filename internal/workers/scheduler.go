package workers

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jobtrack-dev/jobtrack/internal/tasks"
)

// Enqueuer is the part of asynq.Client the scheduler needs
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues maintenance tasks on a cron schedule
type Scheduler struct {
	cron           *cron.Cron
	client         Enqueuer
	auditRetention time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewScheduler validates the cron expression and registers the maintenance job.
// A zero auditRetention keeps audit logs forever.
func NewScheduler(schedule string, client Enqueuer, auditRetention time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:           cron.New(),
		client:         client,
		auditRetention: auditRetention,
		logger:         logger,
		now:            time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.EnqueueMaintenance); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start runs the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EnqueueMaintenance enqueues one round of maintenance tasks. Failures are
// logged; the next tick tries again.
func (s *Scheduler) EnqueueMaintenance() {
	now := s.now()

	purge, err := tasks.NewPurgeRevokedTokensTask(now)
	if err == nil {
		_, err = s.client.Enqueue(purge)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue revocation purge")
	}

	if s.auditRetention <= 0 {
		return
	}

	prune, err := tasks.NewPruneAuditLogsTask(now.Add(-s.auditRetention))
	if err == nil {
		_, err = s.client.Enqueue(prune)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue audit log pruning")
	}
}
