package activity

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActivityType classifies the interaction
type ActivityType string

const (
	ActivityTypeTask    ActivityType = "task"
	ActivityTypeCall    ActivityType = "call"
	ActivityTypeMeeting ActivityType = "meeting"
	ActivityTypeEmail   ActivityType = "email"
)

// IsValid checks if the type is a known ActivityType
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityTypeTask, ActivityTypeCall, ActivityTypeMeeting, ActivityTypeEmail:
		return true
	}
	return false
}

// ActivityStatus represents the progress of an activity
type ActivityStatus string

const (
	ActivityStatusPending    ActivityStatus = "pending"
	ActivityStatusInProgress ActivityStatus = "in_progress"
	ActivityStatusCompleted  ActivityStatus = "completed"
	ActivityStatusCancelled  ActivityStatus = "cancelled"
)

// IsValid checks if the status is a known ActivityStatus
func (s ActivityStatus) IsValid() bool {
	switch s {
	case ActivityStatusPending, ActivityStatusInProgress, ActivityStatusCompleted, ActivityStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further work
func (s ActivityStatus) IsTerminal() bool {
	return s == ActivityStatusCompleted || s == ActivityStatusCancelled
}

// ActivityPriority orders activities for planning
type ActivityPriority string

const (
	ActivityPriorityLow    ActivityPriority = "low"
	ActivityPriorityNormal ActivityPriority = "normal"
	ActivityPriorityHigh   ActivityPriority = "high"
)

// IsValid checks if the priority is a known ActivityPriority
func (p ActivityPriority) IsValid() bool {
	switch p {
	case ActivityPriorityLow, ActivityPriorityNormal, ActivityPriorityHigh:
		return true
	}
	return false
}

// Activity represents a unit of work or interaction tied to a contact
// and/or a deal. It is the aggregate root for activity operations.
type Activity struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Type        ActivityType     `gorm:"type:varchar(20);not null;index"`
	Subject     string           `gorm:"type:varchar(200);not null"`
	Description string           `gorm:"type:text"`
	Status      ActivityStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority    ActivityPriority `gorm:"type:varchar(10);not null;default:'normal'"`
	ContactID   *uuid.UUID       `gorm:"type:uuid;index"`
	DealID      *uuid.UUID       `gorm:"type:uuid;index"`
	DueDate     *time.Time       `gorm:"index"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (Activity) TableName() string {
	return "activities"
}

// NewActivity creates a new activity. At least one of contactID/dealID is
// required; a task additionally requires a due date.
func NewActivity(tenantID, ownerID uuid.UUID, activityType ActivityType, subject string, contactID, dealID *uuid.UUID, dueDate *time.Time) (*Activity, error) {
	if !activityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Invalid activity type")
	}
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if (contactID == nil || *contactID == uuid.Nil) && (dealID == nil || *dealID == uuid.Nil) {
		return nil, shared.NewDomainError("MISSING_REFERENCE", "Activity must reference a contact or a deal")
	}
	if activityType == ActivityTypeTask && dueDate == nil {
		return nil, shared.NewDomainError("DUE_DATE_REQUIRED", "Tasks require a due date")
	}

	a := &Activity{
		TenantAggregateRoot: shared.NewOwnedTenantAggregateRoot(tenantID, ownerID),
		Type:                activityType,
		Subject:             subject,
		Status:              ActivityStatusPending,
		Priority:            ActivityPriorityNormal,
		ContactID:           contactID,
		DealID:              dealID,
		DueDate:             dueDate,
	}

	a.AddDomainEvent(NewActivityCreatedEvent(a))

	return a, nil
}

// Update updates subject, description, priority and due date
func (a *Activity) Update(subject, description string, priority ActivityPriority, dueDate *time.Time) error {
	if err := a.ensureWorkable(); err != nil {
		return err
	}
	if err := validateSubject(subject); err != nil {
		return err
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Invalid activity priority")
	}
	if a.Type == ActivityTypeTask && dueDate == nil {
		return shared.NewDomainError("DUE_DATE_REQUIRED", "Tasks require a due date")
	}

	a.Subject = subject
	a.Description = description
	a.Priority = priority
	a.DueDate = dueDate
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Start moves a pending activity to in progress
func (a *Activity) Start() error {
	if err := a.ensureWorkable(); err != nil {
		return err
	}
	if a.Status != ActivityStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only a pending activity can be started")
	}

	a.Status = ActivityStatusInProgress
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Complete marks the activity done and stamps CompletedAt
func (a *Activity) Complete() error {
	if err := a.ensureWorkable(); err != nil {
		return err
	}

	now := time.Now()
	a.Status = ActivityStatusCompleted
	a.CompletedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewActivityCompletedEvent(a))

	return nil
}

// Cancel abandons the activity
func (a *Activity) Cancel() error {
	if err := a.ensureWorkable(); err != nil {
		return err
	}

	a.Status = ActivityStatusCancelled
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewActivityCancelledEvent(a))

	return nil
}

// Reassign changes the owning user
func (a *Activity) Reassign(ownerID uuid.UUID) error {
	if err := a.ensureWorkable(); err != nil {
		return err
	}
	if ownerID == uuid.Nil {
		return shared.NewDomainError("INVALID_OWNER", "Owner cannot be empty")
	}

	a.SetOwner(ownerID)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewActivityReassignedEvent(a, ownerID))

	return nil
}

// Delete soft deletes the activity
func (a *Activity) Delete(by uuid.UUID) error {
	if a.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED", "Activity is already deleted")
	}

	a.MarkDeleted(by)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// IsOverdue reports whether a live, unfinished activity has passed its due date
func (a *Activity) IsOverdue(now time.Time) bool {
	if a.IsDeleted() || a.Status.IsTerminal() || a.DueDate == nil {
		return false
	}
	return a.DueDate.Before(now)
}

func (a *Activity) ensureWorkable() error {
	if a.IsDeleted() {
		return shared.NewDomainError("ACTIVITY_DELETED", "Cannot modify a deleted activity")
	}
	if a.Status.IsTerminal() {
		return shared.NewDomainError("ACTIVITY_FINISHED", "Activity is already "+string(a.Status))
	}
	return nil
}

func validateSubject(subject string) error {
	if subject == "" {
		return shared.NewDomainError("INVALID_SUBJECT", "Activity subject cannot be empty")
	}
	if len(subject) > 200 {
		return shared.NewDomainError("INVALID_SUBJECT", "Activity subject cannot exceed 200 characters")
	}
	return nil
}
