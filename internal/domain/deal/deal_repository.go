package deal

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StageSummary aggregates deal count and value for one pipeline stage
type StageSummary struct {
	Stage DealStage       `json:"stage"`
	Count int64           `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// DealRepository defines the interface for deal persistence
type DealRepository interface {
	// FindByID finds a deal by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Deal, error)

	// FindByIDForTenant finds a deal by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)

	// FindAllForTenant finds all deals for a tenant, deleted excluded
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Deal, error)

	// FindByStage finds deals in a pipeline stage for a tenant
	FindByStage(ctx context.Context, tenantID uuid.UUID, stage DealStage, filter shared.Filter) ([]Deal, error)

	// FindByContact finds deals referencing a contact
	FindByContact(ctx context.Context, tenantID, contactID uuid.UUID, filter shared.Filter) ([]Deal, error)

	// FindByOwner finds deals owned by a user
	FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter shared.Filter) ([]Deal, error)

	// FindClosedBetween finds deals whose actual close date falls in the range
	FindClosedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Deal, error)

	// Save creates or updates a deal
	Save(ctx context.Context, deal *Deal) error

	// SaveWithLock saves a deal with optimistic locking (version check)
	SaveWithLock(ctx context.Context, deal *Deal) error

	// SaveWithHistory persists the deal and appends a stage history row in one transaction
	SaveWithHistory(ctx context.Context, deal *Deal, history *StageHistory) error

	// CountForTenant counts deals for a tenant, deleted excluded
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// PipelineSummary returns count and total value per stage
	PipelineSummary(ctx context.Context, tenantID uuid.UUID) ([]StageSummary, error)

	// WinRate returns won/(won+lost) over closed deals, 0 when none closed
	WinRate(ctx context.Context, tenantID uuid.UUID) (float64, error)

	// FindStageHistory lists transition records for a deal, oldest first
	FindStageHistory(ctx context.Context, tenantID, dealID uuid.UUID) ([]StageHistory, error)
}
