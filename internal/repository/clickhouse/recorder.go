package clickhouse

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
)

const recordTimeout = 5 * time.Second

// Recorder writes lifecycle events to ClickHouse asynchronously. A failed
// write must never fail the request that produced the transition, so errors
// are logged and dropped.
type Recorder struct {
	events *EventRepository
	logger *zap.Logger
}

// NewRecorder creates a new recorder
func NewRecorder(events *EventRepository, logger *zap.Logger) *Recorder {
	return &Recorder{events: events, logger: logger}
}

// Record appends one lifecycle event without blocking the caller. The write
// is detached from the request context so an already-answered request does
// not cancel it.
func (r *Recorder) Record(ctx context.Context, event domain.LifecycleEvent) {
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()

		if err := r.events.Insert(writeCtx, event); err != nil {
			r.logger.Warn("failed to record lifecycle event",
				zap.String("aggregate_kind", string(event.AggregateKind)),
				zap.String("aggregate_id", event.AggregateID),
				zap.String("tenant_id", event.TenantID.String()),
				zap.Error(err),
			)
		}
	}()
}
