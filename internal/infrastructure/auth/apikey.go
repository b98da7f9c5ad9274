package auth

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/identity"
)

// API key authentication errors
var (
	ErrMalformedAPIKey = errors.New("malformed API key")
	ErrUnknownAPIKey   = errors.New("unknown API key")
	ErrUnusableAPIKey  = errors.New("API key is revoked or expired")
)

// APIKeyAuthenticator resolves a presented raw key to a usable API key.
// Lookup goes through the stored plaintext prefix so only a handful of
// candidates are hash-compared per attempt.
type APIKeyAuthenticator struct {
	keys identity.APIKeyRepository
}

// NewAPIKeyAuthenticator creates an authenticator backed by the key repository
func NewAPIKeyAuthenticator(keys identity.APIKeyRepository) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{keys: keys}
}

// Authenticate verifies a raw API key and returns the matching key record.
// The last-used timestamp is updated best-effort; a failed touch never
// rejects an otherwise valid key.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, rawKey string) (*identity.APIKey, error) {
	prefix, ok := identity.ParseAPIKeyPrefix(rawKey)
	if !ok {
		return nil, ErrMalformedAPIKey
	}

	candidates, err := a.keys.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		key := &candidates[i]
		if !key.Matches(rawKey) {
			continue
		}
		if !key.IsUsable() {
			return nil, ErrUnusableAPIKey
		}
		_ = a.keys.TouchLastUsed(ctx, key.ID)
		return key, nil
	}

	return nil, ErrUnknownAPIKey
}
