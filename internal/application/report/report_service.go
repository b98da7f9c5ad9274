package report

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/report"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReportService serves stored report snapshots. Generation happens
// asynchronously through the report task executor.
type ReportService struct {
	snapshots report.SnapshotRepository
}

// NewReportService creates a new ReportService
func NewReportService(snapshots report.SnapshotRepository) *ReportService {
	return &ReportService{snapshots: snapshots}
}

// Get retrieves the snapshot for a kind and period start
func (s *ReportService) Get(ctx context.Context, tenantID uuid.UUID, query SnapshotQuery) (*SnapshotResponse, error) {
	kind := report.SnapshotKind(query.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown report kind")
	}

	snapshot, err := s.snapshots.Find(ctx, tenantID, kind, query.PeriodStart)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.ErrNotFound
	}

	response := ToSnapshotResponse(snapshot)
	return &response, nil
}

// GetLatest retrieves the most recently generated snapshot of a kind
func (s *ReportService) GetLatest(ctx context.Context, tenantID uuid.UUID, kind string) (*SnapshotResponse, error) {
	k := report.SnapshotKind(kind)
	if !k.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown report kind")
	}

	snapshot, err := s.snapshots.FindLatest(ctx, tenantID, k)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.ErrNotFound
	}

	response := ToSnapshotResponse(snapshot)
	return &response, nil
}

// IsStale reports whether the latest snapshot of a kind is older than
// maxAge or missing entirely.
func (s *ReportService) IsStale(ctx context.Context, tenantID uuid.UUID, kind string, maxAge time.Duration) (bool, error) {
	k := report.SnapshotKind(kind)
	if !k.IsValid() {
		return false, shared.NewDomainError("INVALID_KIND", "Unknown report kind")
	}

	snapshot, err := s.snapshots.FindLatest(ctx, tenantID, k)
	if err != nil {
		return false, err
	}
	if snapshot == nil {
		return true, nil
	}

	return time.Since(snapshot.GeneratedAt) > maxAge, nil
}
