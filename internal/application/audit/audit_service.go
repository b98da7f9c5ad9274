package audit

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditService exposes read access to the audit trail plus explicit
// recording for actions that produce no domain event, such as logout.
type AuditService struct {
	repo audit.Repository
}

// NewAuditService creates a new AuditService
func NewAuditService(repo audit.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends an audit entry directly
func (s *AuditService) Record(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, action audit.Action, resourceType string, resourceID *uuid.UUID, detail, requestIP string) error {
	entry, err := audit.NewEntry(tenantID, actorID, action, resourceType, resourceID, detail, requestIP)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, entry)
}

// GetByID retrieves a single audit entry
func (s *AuditService) GetByID(ctx context.Context, tenantID, entryID uuid.UUID) (*EntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	response := ToEntryResponse(entry)
	return &response, nil
}

// List retrieves audit entries with filtering and pagination
func (s *AuditService) List(ctx context.Context, tenantID uuid.UUID, filter EntryListFilter) ([]EntryResponse, int64, error) {
	domainFilter := buildEntryFilter(filter)

	entries, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}

	return responses, total, nil
}

// ListByResource retrieves the audit trail of one resource, newest first
func (s *AuditService) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID, filter EntryListFilter) ([]EntryResponse, error) {
	entries, err := s.repo.FindByResource(ctx, tenantID, resourceType, resourceID, buildEntryFilter(filter))
	if err != nil {
		return nil, err
	}

	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}

	return responses, nil
}

// Purge removes entries older than the retention period
func (s *AuditService) Purge(ctx context.Context, tenantID uuid.UUID, retention time.Duration) (*PurgeResult, error) {
	if retention <= 0 {
		return nil, shared.NewDomainError("INVALID_RETENTION", "Retention period must be positive")
	}

	cutoff := time.Now().Add(-retention)
	removed, err := s.repo.PurgeOlderThan(ctx, tenantID, cutoff)
	if err != nil {
		return nil, err
	}

	return &PurgeResult{Removed: removed, Cutoff: cutoff}, nil
}

func buildEntryFilter(filter EntryListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}

	if filter.Action != "" {
		domainFilter.Filters["action"] = filter.Action
	}
	if filter.ResourceType != "" {
		domainFilter.Filters["resource_type"] = filter.ResourceType
	}
	if filter.ResourceID != "" {
		if id, err := uuid.Parse(filter.ResourceID); err == nil {
			domainFilter.Filters["resource_id"] = id
		}
	}
	if filter.ActorID != "" {
		if id, err := uuid.Parse(filter.ActorID); err == nil {
			domainFilter.Filters["actor_id"] = id
		}
	}

	return domainFilter
}
