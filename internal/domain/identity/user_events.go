package identity

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeUser = "User"

// Event type constants
const (
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeUserRoleChanged     = "UserRoleChanged"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserLoggedIn        = "UserLoggedIn"
	EventTypeUserLoginFailed     = "UserLoginFailed"
)

// UserCreatedEvent is published when a new user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
	}
}

// UserStatusChangedEvent is published when a user's status changes
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID  `json:"user_id"`
	Username  string     `json:"username"`
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
}

// NewUserStatusChangedEvent creates a new UserStatusChangedEvent
func NewUserStatusChangedEvent(u *User, oldStatus, newStatus UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
		Username:        u.Username,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// UserRoleChangedEvent is published when a user's role changes
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	UserID  uuid.UUID `json:"user_id"`
	OldRole Role      `json:"old_role"`
	NewRole Role      `json:"new_role"`
}

// NewUserRoleChangedEvent creates a new UserRoleChangedEvent
func NewUserRoleChangedEvent(u *User, oldRole, newRole Role) *UserRoleChangedEvent {
	return &UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRoleChanged, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
		OldRole:         oldRole,
		NewRole:         newRole,
	}
}

// UserPasswordChangedEvent is published when a user's password changes
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(u *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
	}
}

// UserLoggedInEvent is published on successful authentication
type UserLoggedInEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	IP     string    `json:"ip"`
}

// NewUserLoggedInEvent creates a new UserLoggedInEvent
func NewUserLoggedInEvent(u *User, ip string) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLoggedIn, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
		IP:              ip,
	}
}

// UserLoginFailedEvent is published on a failed authentication attempt
type UserLoginFailedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	IP     string    `json:"ip"`
	Locked bool      `json:"locked"`
}

// NewUserLoginFailedEvent creates a new UserLoginFailedEvent
func NewUserLoginFailedEvent(u *User, ip string, locked bool) *UserLoginFailedEvent {
	return &UserLoginFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLoginFailed, AggregateTypeUser, u.ID, u.TenantID),
		UserID:          u.ID,
		IP:              ip,
		Locked:          locked,
	}
}
