package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/jobs"
)

type flakyAudit struct {
	recordingAudit
	failures int
}

func (f *flakyAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("deadlock detected")
	}
	f.mu.Unlock()
	return f.recordingAudit.CreateAuditLog(ctx, log)
}

func TestAuditWriterFlushesOnStop(t *testing.T) {
	store := &flakyAudit{failures: 1}
	writer := NewAuditWriter(store, zap.NewNop(), jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	fixed := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	writer.now = func() time.Time { return fixed }
	writer.Start(context.Background())

	require.NoError(t, writer.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionBookingCreate}))
	require.NoError(t, writer.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionBookingDelete}))
	writer.Stop()

	require.Len(t, store.logs, 2)
	for _, log := range store.logs {
		assert.Equal(t, fixed, log.CreatedAt)
	}
	assert.Error(t, writer.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionLogin}))
}

func TestBookingServiceToleratesAuditBackpressure(t *testing.T) {
	f := newBookingFixture(t)
	writer := NewAuditWriter(f.audit, nil, jobs.QueueConfig{})
	// never started: every enqueue fails, the booking must still succeed
	f.svc.audit = writer

	_, err := f.svc.Create(context.Background(), otherRequest(), "u-student")
	require.NoError(t, err)
	bookings, _ := f.store.counts()
	assert.Equal(t, 1, bookings)
}
