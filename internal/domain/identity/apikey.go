package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// APIKeyScope limits what an API key may do
type APIKeyScope string

const (
	APIKeyScopeRead  APIKeyScope = "read"
	APIKeyScopeWrite APIKeyScope = "write"
)

// IsValid checks if the scope is a known APIKeyScope
func (s APIKeyScope) IsValid() bool {
	return s == APIKeyScopeRead || s == APIKeyScopeWrite
}

const (
	apiKeyPrefixFormat = "crm"
	apiKeyPrefixLen    = 8
	apiKeySecretBytes  = 32
)

// APIKey is a long-lived credential for programmatic access. Only the
// SHA-256 of the full key is stored; the raw key is returned once at
// creation or rotation. The short prefix is kept plaintext for lookup.
type APIKey struct {
	shared.TenantAggregateRoot
	Name       string `gorm:"type:varchar(100);not null"`
	Prefix     string `gorm:"type:varchar(20);not null;uniqueIndex"`
	KeyHash    string `gorm:"type:varchar(64);not null"`
	Scopes     string `gorm:"type:varchar(100);not null"`
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	Revoked    bool `gorm:"not null;default:false"`
	RevokedAt  *time.Time
}

// TableName returns the table name for GORM
func (APIKey) TableName() string {
	return "api_keys"
}

// NewAPIKey creates a key and returns it with the raw secret. The raw
// value is never recoverable afterwards.
func NewAPIKey(tenantID, ownerID uuid.UUID, name string, scopes []APIKeyScope, expiresAt *time.Time) (*APIKey, string, error) {
	if name == "" {
		return nil, "", shared.NewDomainError("INVALID_NAME", "API key name cannot be empty")
	}
	if len(name) > 100 {
		return nil, "", shared.NewDomainError("INVALID_NAME", "API key name cannot exceed 100 characters")
	}
	if len(scopes) == 0 {
		scopes = []APIKeyScope{APIKeyScopeRead}
	}
	for _, s := range scopes {
		if !s.IsValid() {
			return nil, "", shared.NewDomainError("INVALID_SCOPE", "Unknown API key scope")
		}
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, "", shared.NewDomainError("INVALID_EXPIRY", "Expiry must be in the future")
	}

	raw, prefix, hash, err := generateKeyMaterial()
	if err != nil {
		return nil, "", shared.NewDomainError("KEY_GENERATION_ERROR", "Failed to generate API key")
	}

	key := &APIKey{
		TenantAggregateRoot: shared.NewOwnedTenantAggregateRoot(tenantID, ownerID),
		Name:                name,
		Prefix:              prefix,
		KeyHash:             hash,
		Scopes:              joinScopes(scopes),
		ExpiresAt:           expiresAt,
	}

	key.AddDomainEvent(NewAPIKeyCreatedEvent(key))

	return key, raw, nil
}

// Rotate replaces the secret, keeping name, scopes and expiry.
// Returns the new raw key.
func (k *APIKey) Rotate() (string, error) {
	if k.Revoked {
		return "", shared.NewDomainError("KEY_REVOKED", "Cannot rotate a revoked API key")
	}

	raw, prefix, hash, err := generateKeyMaterial()
	if err != nil {
		return "", shared.NewDomainError("KEY_GENERATION_ERROR", "Failed to generate API key")
	}

	k.Prefix = prefix
	k.KeyHash = hash
	k.LastUsedAt = nil
	k.UpdatedAt = time.Now()
	k.IncrementVersion()

	k.AddDomainEvent(NewAPIKeyRotatedEvent(k))

	return raw, nil
}

// Revoke permanently disables the key
func (k *APIKey) Revoke() error {
	if k.Revoked {
		return shared.NewDomainError("ALREADY_REVOKED", "API key is already revoked")
	}

	now := time.Now()
	k.Revoked = true
	k.RevokedAt = &now
	k.UpdatedAt = now
	k.IncrementVersion()

	k.AddDomainEvent(NewAPIKeyRevokedEvent(k))

	return nil
}

// MarkUsed stamps the last-used time
func (k *APIKey) MarkUsed() {
	now := time.Now()
	k.LastUsedAt = &now
}

// IsExpired reports whether the key has passed its expiry
func (k *APIKey) IsExpired() bool {
	return k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt)
}

// IsUsable reports whether the key can authenticate requests
func (k *APIKey) IsUsable() bool {
	return !k.Revoked && !k.IsExpired()
}

// Matches verifies a presented raw key against the stored hash in
// constant time.
func (k *APIKey) Matches(rawKey string) bool {
	sum := HashAPIKey(rawKey)
	return subtle.ConstantTimeCompare([]byte(sum), []byte(k.KeyHash)) == 1
}

// HasScope reports whether the key carries the scope
func (k *APIKey) HasScope(scope APIKeyScope) bool {
	for _, s := range strings.Split(k.Scopes, ",") {
		if APIKeyScope(s) == scope {
			return true
		}
	}
	return false
}

// GetScopes parses the stored scope list
func (k *APIKey) GetScopes() []APIKeyScope {
	parts := strings.Split(k.Scopes, ",")
	scopes := make([]APIKeyScope, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			scopes = append(scopes, APIKeyScope(p))
		}
	}
	return scopes
}

// HashAPIKey returns the hex SHA-256 of a raw key
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// ParseAPIKeyPrefix extracts the lookup prefix from a raw key.
// Keys look like crm_<prefix>_<secret>.
func ParseAPIKeyPrefix(rawKey string) (string, bool) {
	parts := strings.SplitN(rawKey, "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyPrefixFormat || len(parts[1]) != apiKeyPrefixLen {
		return "", false
	}
	return parts[1], true
}

func generateKeyMaterial() (raw, prefix, hash string, err error) {
	buf := make([]byte, apiKeyPrefixLen/2+apiKeySecretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", err
	}

	prefix = hex.EncodeToString(buf[:apiKeyPrefixLen/2])
	secret := hex.EncodeToString(buf[apiKeyPrefixLen/2:])
	raw = apiKeyPrefixFormat + "_" + prefix + "_" + secret
	hash = HashAPIKey(raw)
	return raw, prefix, hash, nil
}

func joinScopes(scopes []APIKeyScope) string {
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",")
}
