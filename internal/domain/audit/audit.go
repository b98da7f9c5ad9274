package audit

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Action classifies what the actor did
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionStatusChange Action = "status_change"
	ActionLogin        Action = "login"
	ActionLoginFailed  Action = "login_failed"
	ActionLogout       Action = "logout"
)

// IsValid checks if the action is a known Action
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStatusChange, ActionLogin, ActionLoginFailed, ActionLogout:
		return true
	}
	return false
}

// Entry is an append-only audit record. Entries are never updated or
// deleted except through retention purges.
type Entry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID      *uuid.UUID `gorm:"type:uuid;index"`
	Action       Action     `gorm:"type:varchar(30);not null;index"`
	ResourceType string     `gorm:"type:varchar(50);not null;index"`
	ResourceID   *uuid.UUID `gorm:"type:uuid;index"`
	Detail       string     `gorm:"type:jsonb;not null;default:'{}'"`
	RequestIP    string     `gorm:"type:varchar(45)"`
	CreatedAt    time.Time  `gorm:"index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "audit_logs"
}

// NewEntry creates an audit entry
func NewEntry(tenantID uuid.UUID, actorID *uuid.UUID, action Action, resourceType string, resourceID *uuid.UUID, detail, requestIP string) (*Entry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Unknown audit action")
	}
	if resourceType == "" {
		return nil, shared.NewDomainError("INVALID_RESOURCE_TYPE", "Resource type cannot be empty")
	}
	if detail == "" {
		detail = "{}"
	}

	return &Entry{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		RequestIP:    requestIP,
		CreatedAt:    time.Now(),
	}, nil
}
