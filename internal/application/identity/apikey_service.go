package identity

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// APIKeyService handles API key management operations
type APIKeyService struct {
	keyRepo        identity.APIKeyRepository
	eventPublisher shared.EventPublisher
}

// NewAPIKeyService creates a new APIKeyService
func NewAPIKeyService(keyRepo identity.APIKeyRepository) *APIKeyService {
	return &APIKeyService{
		keyRepo: keyRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *APIKeyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *APIKeyService) publishDomainEvents(ctx context.Context, k *identity.APIKey) {
	if s.eventPublisher == nil {
		return
	}
	events := k.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	k.ClearDomainEvents()
}

// Create creates a new API key. The raw key appears once in the response
// and is never retrievable again.
func (s *APIKeyService) Create(ctx context.Context, tenantID uuid.UUID, req CreateAPIKeyRequest) (*APIKeyResponse, error) {
	scopes := make([]identity.APIKeyScope, len(req.Scopes))
	for i, name := range req.Scopes {
		scopes[i] = identity.APIKeyScope(name)
	}

	key, rawKey, err := identity.NewAPIKey(tenantID, req.OwnerID, req.Name, scopes, req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.keyRepo.Save(ctx, key); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, key)

	response := ToAPIKeyResponse(key, rawKey)
	return &response, nil
}

// GetByID retrieves an API key by ID, without the secret
func (s *APIKeyService) GetByID(ctx context.Context, tenantID, keyID uuid.UUID) (*APIKeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, tenantID, keyID)
	if err != nil {
		return nil, err
	}

	response := ToAPIKeyResponse(key, "")
	return &response, nil
}

// List retrieves the tenant's API keys, without secrets
func (s *APIKeyService) List(ctx context.Context, tenantID uuid.UUID) ([]APIKeyResponse, error) {
	keys, err := s.keyRepo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}

	responses := make([]APIKeyResponse, len(keys))
	for i := range keys {
		responses[i] = ToAPIKeyResponse(&keys[i], "")
	}

	return responses, nil
}

// ListByOwner retrieves API keys owned by a user
func (s *APIKeyService) ListByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]APIKeyResponse, error) {
	keys, err := s.keyRepo.FindByOwner(ctx, tenantID, ownerID)
	if err != nil {
		return nil, err
	}

	responses := make([]APIKeyResponse, len(keys))
	for i := range keys {
		responses[i] = ToAPIKeyResponse(&keys[i], "")
	}

	return responses, nil
}

// Rotate replaces the key's secret, returning the new raw key once
func (s *APIKeyService) Rotate(ctx context.Context, tenantID, keyID uuid.UUID) (*APIKeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, tenantID, keyID)
	if err != nil {
		return nil, err
	}

	rawKey, err := key.Rotate()
	if err != nil {
		return nil, err
	}

	if err := s.keyRepo.Save(ctx, key); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, key)

	response := ToAPIKeyResponse(key, rawKey)
	return &response, nil
}

// Revoke permanently disables an API key
func (s *APIKeyService) Revoke(ctx context.Context, tenantID, keyID uuid.UUID) (*APIKeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, tenantID, keyID)
	if err != nil {
		return nil, err
	}

	if err := key.Revoke(); err != nil {
		return nil, err
	}

	if err := s.keyRepo.Save(ctx, key); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, key)

	response := ToAPIKeyResponse(key, "")
	return &response, nil
}

// Delete removes an API key entirely
func (s *APIKeyService) Delete(ctx context.Context, tenantID, keyID uuid.UUID) error {
	return s.keyRepo.Delete(ctx, tenantID, keyID)
}
