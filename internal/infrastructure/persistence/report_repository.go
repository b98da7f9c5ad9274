package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crm/backend/internal/domain/report"
)

// GormSnapshotRepository implements SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Save upserts a snapshot on tenant+kind+period
func (r *GormSnapshotRepository) Save(ctx context.Context, snapshot *report.Snapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "kind"},
				{Name: "period_start"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"period_end", "payload", "generated_at"}),
		}).
		Create(snapshot).Error
}

// Find returns the snapshot for a tenant, kind and period start, nil when absent
func (r *GormSnapshotRepository) Find(ctx context.Context, tenantID uuid.UUID, kind report.SnapshotKind, periodStart time.Time) (*report.Snapshot, error) {
	var snapshot report.Snapshot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ? AND period_start = ?", tenantID, kind, periodStart).
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// FindLatest returns the most recently generated snapshot of a kind
func (r *GormSnapshotRepository) FindLatest(ctx context.Context, tenantID uuid.UUID, kind report.SnapshotKind) (*report.Snapshot, error) {
	var snapshot report.Snapshot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ?", tenantID, kind).
		Order("generated_at DESC").
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Ensure GormSnapshotRepository implements SnapshotRepository
var _ report.SnapshotRepository = (*GormSnapshotRepository)(nil)
