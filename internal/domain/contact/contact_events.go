package contact

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeContact = "Contact"

// Event type constants
const (
	EventTypeContactCreated       = "ContactCreated"
	EventTypeContactUpdated       = "ContactUpdated"
	EventTypeContactStatusChanged = "ContactStatusChanged"
	EventTypeContactDeleted       = "ContactDeleted"
	EventTypeContactRestored      = "ContactRestored"
)

// ContactCreatedEvent is published when a new contact is created
type ContactCreatedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID     `json:"contact_id"`
	LastName  string        `json:"last_name"`
	FirstName string        `json:"first_name,omitempty"`
	Source    ContactSource `json:"source"`
}

// NewContactCreatedEvent creates a new ContactCreatedEvent
func NewContactCreatedEvent(c *Contact) *ContactCreatedEvent {
	return &ContactCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactCreated, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		LastName:        c.LastName,
		FirstName:       c.FirstName,
		Source:          c.Source,
	}
}

// ContactUpdatedEvent is published when a contact is updated
type ContactUpdatedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name,omitempty"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// NewContactUpdatedEvent creates a new ContactUpdatedEvent
func NewContactUpdatedEvent(c *Contact) *ContactUpdatedEvent {
	return &ContactUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactUpdated, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		LastName:        c.LastName,
		FirstName:       c.FirstName,
		Company:         c.Company,
		Email:           c.Email,
	}
}

// ContactStatusChangedEvent is published when a contact moves lifecycle status
type ContactStatusChangedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID     `json:"contact_id"`
	OldStatus ContactStatus `json:"old_status"`
	NewStatus ContactStatus `json:"new_status"`
}

// NewContactStatusChangedEvent creates a new ContactStatusChangedEvent
func NewContactStatusChangedEvent(c *Contact, oldStatus, newStatus ContactStatus) *ContactStatusChangedEvent {
	return &ContactStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactStatusChanged, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// ContactDeletedEvent is published when a contact is soft deleted
type ContactDeletedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	LastName  string    `json:"last_name"`
}

// NewContactDeletedEvent creates a new ContactDeletedEvent
func NewContactDeletedEvent(c *Contact) *ContactDeletedEvent {
	return &ContactDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactDeleted, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		LastName:        c.LastName,
	}
}

// ContactRestoredEvent is published when a soft-deleted contact is restored
type ContactRestoredEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
}

// NewContactRestoredEvent creates a new ContactRestoredEvent
func NewContactRestoredEvent(c *Contact) *ContactRestoredEvent {
	return &ContactRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactRestored, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
	}
}
