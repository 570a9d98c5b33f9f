package domain

import "time"

// AggregateKind names the aggregate a lifecycle event belongs to.
type AggregateKind string

const (
	AggregateProject      AggregateKind = "project"
	AggregateExecution    AggregateKind = "execution"
	AggregateDeployment   AggregateKind = "deployment"
	AggregateSubscription AggregateKind = "subscription"
)

// LifecycleEvent is one append-only audit record of a state transition.
// Events are emitted by the services after a successful transition and
// stored out-of-band; they are never read back by the domain model.
type LifecycleEvent struct {
	AggregateKind AggregateKind `json:"aggregateKind"`
	AggregateID   string        `json:"aggregateId"`
	TenantID      TenantID      `json:"tenantId"`
	FromStatus    string        `json:"fromStatus"`
	ToStatus      string        `json:"toStatus"`
	Detail        string        `json:"detail,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

// NewLifecycleEvent builds an audit record for a completed transition.
func NewLifecycleEvent(kind AggregateKind, aggregateID string, tenantID TenantID, from, to, detail string) LifecycleEvent {
	return LifecycleEvent{
		AggregateKind: kind,
		AggregateID:   aggregateID,
		TenantID:      tenantID,
		FromStatus:    from,
		ToStatus:      to,
		Detail:        detail,
		OccurredAt:    time.Now().UTC(),
	}
}
