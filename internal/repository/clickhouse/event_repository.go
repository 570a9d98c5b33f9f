// Package clickhouse holds the append-only audit store. Lifecycle events
// are written once per state transition and only ever queried, never
// updated, which is what ClickHouse is good at.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/database"
)

// EventRepository handles lifecycle event data operations in ClickHouse
type EventRepository struct {
	db *database.ClickHouseDB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.ClickHouseDB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert appends one lifecycle event
func (r *EventRepository) Insert(ctx context.Context, event domain.LifecycleEvent) error {
	query := `
		INSERT INTO lifecycle_events (
			aggregate_kind, aggregate_id, tenant_id, from_status, to_status, detail, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	return r.db.Conn.Exec(ctx, query,
		string(event.AggregateKind),
		event.AggregateID,
		event.TenantID.String(),
		event.FromStatus,
		event.ToStatus,
		event.Detail,
		event.OccurredAt,
	)
}

// InsertBatch appends multiple lifecycle events
func (r *EventRepository) InsertBatch(ctx context.Context, events []domain.LifecycleEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := r.db.Conn.PrepareBatch(ctx, `
		INSERT INTO lifecycle_events (
			aggregate_kind, aggregate_id, tenant_id, from_status, to_status, detail, occurred_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, event := range events {
		if err := batch.Append(
			string(event.AggregateKind),
			event.AggregateID,
			event.TenantID.String(),
			event.FromStatus,
			event.ToStatus,
			event.Detail,
			event.OccurredAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// ListByAggregate retrieves the transition history of one aggregate, oldest
// first
func (r *EventRepository) ListByAggregate(ctx context.Context, tenantID domain.TenantID, aggregateID string, limit int) ([]domain.LifecycleEvent, error) {
	query := `
		SELECT aggregate_kind, aggregate_id, tenant_id, from_status, to_status, detail, occurred_at
		FROM lifecycle_events
		WHERE tenant_id = ? AND aggregate_id = ?
		ORDER BY occurred_at ASC
		LIMIT ?
	`

	rows, err := r.db.Conn.Query(ctx, query, tenantID.String(), aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.LifecycleEvent
	for rows.Next() {
		var e domain.LifecycleEvent
		var kind, tenant string
		if err := rows.Scan(&kind, &e.AggregateID, &tenant, &e.FromStatus, &e.ToStatus, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.AggregateKind = domain.AggregateKind(kind)
		e.TenantID = domain.TenantID(tenant)
		events = append(events, e)
	}

	return events, rows.Err()
}

// ListByTenant retrieves recent events across a tenant's aggregates, newest
// first
func (r *EventRepository) ListByTenant(ctx context.Context, tenantID domain.TenantID, since time.Time, limit int) ([]domain.LifecycleEvent, error) {
	query := `
		SELECT aggregate_kind, aggregate_id, tenant_id, from_status, to_status, detail, occurred_at
		FROM lifecycle_events
		WHERE tenant_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn.Query(ctx, query, tenantID.String(), since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.LifecycleEvent
	for rows.Next() {
		var e domain.LifecycleEvent
		var kind, tenant string
		if err := rows.Scan(&kind, &e.AggregateID, &tenant, &e.FromStatus, &e.ToStatus, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.AggregateKind = domain.AggregateKind(kind)
		e.TenantID = domain.TenantID(tenant)
		events = append(events, e)
	}

	return events, rows.Err()
}
