package activity

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeActivity = "Activity"

// Event type constants
const (
	EventTypeActivityCreated    = "ActivityCreated"
	EventTypeActivityCompleted  = "ActivityCompleted"
	EventTypeActivityCancelled  = "ActivityCancelled"
	EventTypeActivityReassigned = "ActivityReassigned"
)

// ActivityCreatedEvent is published when an activity is created
type ActivityCreatedEvent struct {
	shared.BaseDomainEvent
	ActivityID uuid.UUID    `json:"activity_id"`
	Type       ActivityType `json:"type"`
	Subject    string       `json:"subject"`
	ContactID  *uuid.UUID   `json:"contact_id,omitempty"`
	DealID     *uuid.UUID   `json:"deal_id,omitempty"`
}

// NewActivityCreatedEvent creates a new ActivityCreatedEvent
func NewActivityCreatedEvent(a *Activity) *ActivityCreatedEvent {
	return &ActivityCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityCreated, AggregateTypeActivity, a.ID, a.TenantID),
		ActivityID:      a.ID,
		Type:            a.Type,
		Subject:         a.Subject,
		ContactID:       a.ContactID,
		DealID:          a.DealID,
	}
}

// ActivityCompletedEvent is published when an activity is completed
type ActivityCompletedEvent struct {
	shared.BaseDomainEvent
	ActivityID uuid.UUID    `json:"activity_id"`
	Type       ActivityType `json:"type"`
	Subject    string       `json:"subject"`
}

// NewActivityCompletedEvent creates a new ActivityCompletedEvent
func NewActivityCompletedEvent(a *Activity) *ActivityCompletedEvent {
	return &ActivityCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityCompleted, AggregateTypeActivity, a.ID, a.TenantID),
		ActivityID:      a.ID,
		Type:            a.Type,
		Subject:         a.Subject,
	}
}

// ActivityCancelledEvent is published when an activity is cancelled
type ActivityCancelledEvent struct {
	shared.BaseDomainEvent
	ActivityID uuid.UUID `json:"activity_id"`
	Subject    string    `json:"subject"`
}

// NewActivityCancelledEvent creates a new ActivityCancelledEvent
func NewActivityCancelledEvent(a *Activity) *ActivityCancelledEvent {
	return &ActivityCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityCancelled, AggregateTypeActivity, a.ID, a.TenantID),
		ActivityID:      a.ID,
		Subject:         a.Subject,
	}
}

// ActivityReassignedEvent is published when an activity changes owner
type ActivityReassignedEvent struct {
	shared.BaseDomainEvent
	ActivityID uuid.UUID `json:"activity_id"`
	NewOwnerID uuid.UUID `json:"new_owner_id"`
}

// NewActivityReassignedEvent creates a new ActivityReassignedEvent
func NewActivityReassignedEvent(a *Activity, newOwnerID uuid.UUID) *ActivityReassignedEvent {
	return &ActivityReassignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityReassigned, AggregateTypeActivity, a.ID, a.TenantID),
		ActivityID:      a.ID,
		NewOwnerID:      newOwnerID,
	}
}
