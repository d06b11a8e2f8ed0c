package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/jobs"
)

// AuditWriter persists audit entries off the request path. Entries carry
// their own timestamp so a delayed write keeps the time of the action.
type AuditWriter struct {
	queue *jobs.Queue[*models.AuditLog]
	now   func() time.Time
}

// NewAuditWriter wraps store with a worker queue. Call Start before use and
// Stop on shutdown to flush buffered entries.
func NewAuditWriter(store auditLogger, logger *zap.Logger, cfg jobs.QueueConfig) *AuditWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	write := func(ctx context.Context, log *models.AuditLog) error {
		return store.CreateAuditLog(ctx, log)
	}
	return &AuditWriter{queue: jobs.NewQueue[*models.AuditLog]("audit", write, cfg), now: time.Now}
}

// Start launches the workers.
func (w *AuditWriter) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop flushes buffered entries and stops the workers.
func (w *AuditWriter) Stop() {
	w.queue.Stop()
}

// CreateAuditLog enqueues log. It fails only when the queue is full or
// stopped; callers log and move on.
func (w *AuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = w.now().UTC()
	}
	return w.queue.TryEnqueue(log)
}
