package report

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PipelineSummary is a read model of the deal pipeline for a period
type PipelineSummary struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	OpenDeals   int64           `json:"open_deals"`
	OpenValue   decimal.Decimal `json:"open_value"`
	WonDeals    int64           `json:"won_deals"`
	WonValue    decimal.Decimal `json:"won_value"`
	LostDeals   int64           `json:"lost_deals"`
	LostValue   decimal.Decimal `json:"lost_value"`
	WinRate     float64         `json:"win_rate"`
}

// ActivitySummary is a read model of activity throughput for a period
type ActivitySummary struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Created     int64     `json:"created"`
	Completed   int64     `json:"completed"`
	Overdue     int64     `json:"overdue"`
}

// SnapshotKind names the report family stored in a snapshot
type SnapshotKind string

const (
	SnapshotKindPipeline SnapshotKind = "pipeline"
	SnapshotKindActivity SnapshotKind = "activity"
)

// IsValid checks if the kind is known
func (k SnapshotKind) IsValid() bool {
	return k == SnapshotKindPipeline || k == SnapshotKindActivity
}

// Snapshot is a cached report computed by the report task executor for a
// tenant and period. Payload is the serialized read model.
type Snapshot struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_report_tenant_kind_period,priority:1"`
	Kind        SnapshotKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_report_tenant_kind_period,priority:2"`
	PeriodStart time.Time    `gorm:"not null;uniqueIndex:idx_report_tenant_kind_period,priority:3"`
	PeriodEnd   time.Time    `gorm:"not null"`
	Payload     string       `gorm:"type:jsonb;not null"`
	GeneratedAt time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Snapshot) TableName() string {
	return "report_snapshots"
}

// NewSnapshot creates a report snapshot
func NewSnapshot(tenantID uuid.UUID, kind SnapshotKind, periodStart, periodEnd time.Time, payload string) (*Snapshot, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown report kind")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}
	if payload == "" {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Report payload cannot be empty")
	}

	return &Snapshot{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Kind:        kind,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Payload:     payload,
		GeneratedAt: time.Now(),
	}, nil
}

// SnapshotRepository defines the interface for report snapshot persistence
type SnapshotRepository interface {
	// Save upserts a snapshot on tenant+kind+period
	Save(ctx context.Context, snapshot *Snapshot) error

	// Find returns the snapshot for a tenant, kind and period start, nil when absent
	Find(ctx context.Context, tenantID uuid.UUID, kind SnapshotKind, periodStart time.Time) (*Snapshot, error)

	// FindLatest returns the most recently generated snapshot of a kind
	FindLatest(ctx context.Context, tenantID uuid.UUID, kind SnapshotKind) (*Snapshot, error)
}
