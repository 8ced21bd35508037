package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/models"
	"github.com/jobtrack-dev/jobtrack/internal/revocation"
	"github.com/jobtrack-dev/jobtrack/internal/tasks"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestScheduler_EnqueueMaintenance(t *testing.T) {
	enq := &fakeEnqueuer{}
	s, err := NewScheduler("@every 1h", enq, 24*time.Hour, zerolog.Nop())
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.EnqueueMaintenance()

	require.Len(t, enq.tasks, 2)
	assert.Equal(t, tasks.TypePurgeRevokedTokens, enq.tasks[0].Type())
	assert.Equal(t, tasks.TypePruneAuditLogs, enq.tasks[1].Type())

	payload, err := tasks.ParseTaskPayload(enq.tasks[1])
	require.NoError(t, err)
	assert.True(t, payload.Cutoff.Equal(now.Add(-24*time.Hour)))
}

func TestScheduler_NoRetentionSkipsPruning(t *testing.T) {
	enq := &fakeEnqueuer{}
	s, err := NewScheduler("*/5 * * * *", enq, 0, zerolog.Nop())
	require.NoError(t, err)

	s.EnqueueMaintenance()

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypePurgeRevokedTokens, enq.tasks[0].Type())
}

func TestScheduler_EnqueueFailureIsLogged(t *testing.T) {
	s, err := NewScheduler("@hourly", &fakeEnqueuer{err: errors.New("redis down")}, time.Hour, zerolog.Nop())
	require.NoError(t, err)

	assert.NotPanics(t, s.EnqueueMaintenance)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler("every tuesday", &fakeEnqueuer{}, 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestHandlePurgeRevokedTokens(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewGormStore(newTestDB(t))
	require.NoError(t, store.Revoke(ctx, "expired", time.Now().Add(-time.Hour)))
	require.NoError(t, store.Revoke(ctx, "live", time.Now().Add(time.Hour)))

	task, err := tasks.NewPurgeRevokedTokensTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, HandlePurgeRevokedTokens(ctx, task, store, zerolog.Nop()))

	revoked, err := store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = store.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestHandlePruneAuditLogs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	recorder := audit.NewRecorder(db, zerolog.Nop())

	old := models.AuditLog{EventType: audit.EventLogin, BaseModel: models.BaseModel{CreatedAt: time.Now().Add(-72 * time.Hour)}}
	require.NoError(t, db.Create(&old).Error)
	recorder.Record(ctx, audit.Event{Type: audit.EventLogout})

	task, err := tasks.NewPruneAuditLogsTask(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	require.NoError(t, HandlePruneAuditLogs(ctx, task, recorder, zerolog.Nop()))

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestHandlers_BadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(tasks.TypePruneAuditLogs, []byte(`{}`))

	err := HandlePruneAuditLogs(context.Background(), task, nil, zerolog.Nop())
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
