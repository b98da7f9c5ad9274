package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides versioning and event collection for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent records a domain event to be published after persistence
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// TenantAggregateRoot extends BaseAggregateRoot with tenant isolation
// and record ownership used by data scope filtering.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OwnerID  *uuid.UUID `gorm:"type:uuid;index"`
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// NewOwnedTenantAggregateRoot creates a tenant-scoped aggregate root owned by a user
func NewOwnedTenantAggregateRoot(tenantID, ownerID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
		OwnerID:           &ownerID,
	}
}

// SetOwner assigns the owning user
func (t *TenantAggregateRoot) SetOwner(userID uuid.UUID) {
	t.OwnerID = &userID
}

// GetOwner returns the owning user ID, nil when unassigned
func (t *TenantAggregateRoot) GetOwner() *uuid.UUID {
	return t.OwnerID
}

// SoftDeletable adds reversible deletion to an aggregate. Deleted records
// stay in storage and are excluded from default queries.
type SoftDeletable struct {
	DeletedAt *time.Time `gorm:"index"`
	DeletedBy *uuid.UUID `gorm:"type:uuid"`
}

// IsDeleted reports whether the record has been soft deleted
func (s *SoftDeletable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted soft deletes the record
func (s *SoftDeletable) MarkDeleted(by uuid.UUID) {
	now := time.Now()
	s.DeletedAt = &now
	s.DeletedBy = &by
}

// Restore reverses a soft delete
func (s *SoftDeletable) Restore() {
	s.DeletedAt = nil
	s.DeletedBy = nil
}
