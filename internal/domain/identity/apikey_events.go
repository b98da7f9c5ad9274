package identity

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeAPIKey = "APIKey"

// Event type constants
const (
	EventTypeAPIKeyCreated = "APIKeyCreated"
	EventTypeAPIKeyRotated = "APIKeyRotated"
	EventTypeAPIKeyRevoked = "APIKeyRevoked"
)

// APIKeyCreatedEvent is published when an API key is issued
type APIKeyCreatedEvent struct {
	shared.BaseDomainEvent
	KeyID  uuid.UUID `json:"key_id"`
	Name   string    `json:"name"`
	Prefix string    `json:"prefix"`
}

// NewAPIKeyCreatedEvent creates a new APIKeyCreatedEvent
func NewAPIKeyCreatedEvent(k *APIKey) *APIKeyCreatedEvent {
	return &APIKeyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAPIKeyCreated, AggregateTypeAPIKey, k.ID, k.TenantID),
		KeyID:           k.ID,
		Name:            k.Name,
		Prefix:          k.Prefix,
	}
}

// APIKeyRotatedEvent is published when an API key's secret is replaced
type APIKeyRotatedEvent struct {
	shared.BaseDomainEvent
	KeyID  uuid.UUID `json:"key_id"`
	Prefix string    `json:"prefix"`
}

// NewAPIKeyRotatedEvent creates a new APIKeyRotatedEvent
func NewAPIKeyRotatedEvent(k *APIKey) *APIKeyRotatedEvent {
	return &APIKeyRotatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAPIKeyRotated, AggregateTypeAPIKey, k.ID, k.TenantID),
		KeyID:           k.ID,
		Prefix:          k.Prefix,
	}
}

// APIKeyRevokedEvent is published when an API key is revoked
type APIKeyRevokedEvent struct {
	shared.BaseDomainEvent
	KeyID uuid.UUID `json:"key_id"`
	Name  string    `json:"name"`
}

// NewAPIKeyRevokedEvent creates a new APIKeyRevokedEvent
func NewAPIKeyRevokedEvent(k *APIKey) *APIKeyRevokedEvent {
	return &APIKeyRevokedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAPIKeyRevoked, AggregateTypeAPIKey, k.ID, k.TenantID),
		KeyID:           k.ID,
		Name:            k.Name,
	}
}
