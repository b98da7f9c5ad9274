package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
)

// GormAPIKeyRepository implements APIKeyRepository using GORM
type GormAPIKeyRepository struct {
	db *gorm.DB
}

// NewGormAPIKeyRepository creates a new GormAPIKeyRepository
func NewGormAPIKeyRepository(db *gorm.DB) *GormAPIKeyRepository {
	return &GormAPIKeyRepository{db: db}
}

// FindByID finds an API key by its ID within a tenant
func (r *GormAPIKeyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.APIKey, error) {
	var key identity.APIKey
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

// FindByPrefix finds candidate keys by plaintext prefix across tenants.
// Authentication happens before the tenant is known.
func (r *GormAPIKeyRepository) FindByPrefix(ctx context.Context, prefix string) ([]identity.APIKey, error) {
	var keys []identity.APIKey
	if err := r.db.WithContext(ctx).
		Where("prefix = ?", prefix).
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// FindAllForTenant lists keys for a tenant
func (r *GormAPIKeyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.APIKey, error) {
	var keys []identity.APIKey
	query := r.db.WithContext(ctx).Model(&identity.APIKey{}).Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "revoked":
			query = query.Where("revoked = ?", value)
		case "owner_id":
			query = query.Where("owner_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, APIKeySortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// FindByOwner lists keys owned by a user
func (r *GormAPIKeyRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]identity.APIKey, error) {
	var keys []identity.APIKey
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Save creates or updates an API key
func (r *GormAPIKeyRepository) Save(ctx context.Context, key *identity.APIKey) error {
	return r.db.WithContext(ctx).Save(key).Error
}

// Delete removes an API key
func (r *GormAPIKeyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.APIKey{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TouchLastUsed updates only the last-used timestamp
func (r *GormAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&identity.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", time.Now()).Error
}

// Ensure GormAPIKeyRepository implements APIKeyRepository
var _ identity.APIKeyRepository = (*GormAPIKeyRepository)(nil)
