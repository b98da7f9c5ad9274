package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/shared"
)

// GormDealRepository implements DealRepository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

func (r *GormDealRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&deal.Deal{}).Where("deleted_at IS NULL")
}

// FindByID finds a deal by its ID
func (r *GormDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	var d deal.Deal
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByIDForTenant finds a deal by ID within a tenant
func (r *GormDealRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*deal.Deal, error) {
	var d deal.Deal
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindAllForTenant finds all live deals for a tenant
func (r *GormDealRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.applyFilter(r.live(ctx).Where("tenant_id = ?", tenantID), filter)
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// FindByStage finds live deals in a pipeline stage for a tenant
func (r *GormDealRepository) FindByStage(ctx context.Context, tenantID uuid.UUID, stage deal.DealStage, filter shared.Filter) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND stage = ?", tenantID, stage),
		filter,
	)
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// FindByContact finds live deals referencing a contact
func (r *GormDealRepository) FindByContact(ctx context.Context, tenantID, contactID uuid.UUID, filter shared.Filter) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND contact_id = ?", tenantID, contactID),
		filter,
	)
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// FindByOwner finds live deals owned by a user
func (r *GormDealRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter shared.Filter) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID),
		filter,
	)
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// FindClosedBetween finds deals whose actual close date falls in the range
func (r *GormDealRepository) FindClosedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]deal.Deal, error) {
	var deals []deal.Deal
	if err := r.live(ctx).
		Where("tenant_id = ? AND actual_close_date >= ? AND actual_close_date < ?", tenantID, from, to).
		Order("actual_close_date ASC").
		Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// Save creates or updates a deal
func (r *GormDealRepository) Save(ctx context.Context, d *deal.Deal) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// SaveWithLock saves a deal with optimistic locking (version check)
func (r *GormDealRepository) SaveWithLock(ctx context.Context, d *deal.Deal) error {
	result := r.db.WithContext(ctx).
		Model(&deal.Deal{}).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Select("*").
		Updates(d)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveWithHistory persists the deal and appends a stage history row in one transaction
func (r *GormDealRepository) SaveWithHistory(ctx context.Context, d *deal.Deal, history *deal.StageHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&deal.Deal{}).
			Where("id = ? AND version = ?", d.ID, d.Version-1).
			Select("*").
			Updates(d)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountForTenant counts live deals for a tenant
func (r *GormDealRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.live(ctx).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PipelineSummary returns count and total value per stage
func (r *GormDealRepository) PipelineSummary(ctx context.Context, tenantID uuid.UUID) ([]deal.StageSummary, error) {
	var rows []struct {
		Stage deal.DealStage
		Count int64
		Value decimal.Decimal
	}
	if err := r.live(ctx).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS value").
		Where("tenant_id = ?", tenantID).
		Group("stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]deal.StageSummary, len(rows))
	for i, row := range rows {
		summaries[i] = deal.StageSummary{Stage: row.Stage, Count: row.Count, Value: row.Value}
	}
	return summaries, nil
}

// WinRate returns won/(won+lost) over closed deals, 0 when none closed
func (r *GormDealRepository) WinRate(ctx context.Context, tenantID uuid.UUID) (float64, error) {
	var row struct {
		Won    int64
		Closed int64
	}
	if err := r.live(ctx).
		Select("COUNT(*) FILTER (WHERE stage = ?) AS won, COUNT(*) AS closed", deal.StageClosedWon).
		Where("tenant_id = ? AND stage IN ?", tenantID, []deal.DealStage{deal.StageClosedWon, deal.StageClosedLost}).
		Scan(&row).Error; err != nil {
		return 0, err
	}
	if row.Closed == 0 {
		return 0, nil
	}
	return float64(row.Won) / float64(row.Closed), nil
}

// FindStageHistory lists transition records for a deal, oldest first
func (r *GormDealRepository) FindStageHistory(ctx context.Context, tenantID, dealID uuid.UUID) ([]deal.StageHistory, error) {
	var history []deal.StageHistory
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// applyFilter applies filter options to the query
func (r *GormDealRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, DealSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDealRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "contact_id":
			query = query.Where("contact_id = ?", value)
		case "owner_id":
			query = query.Where("owner_id = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		case "open":
			if value == true {
				query = query.Where("stage NOT IN ?", []deal.DealStage{deal.StageClosedWon, deal.StageClosedLost})
			}
		}
	}

	return query
}

// Ensure GormDealRepository implements DealRepository
var _ deal.DealRepository = (*GormDealRepository)(nil)
