package deal

import (
	"context"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DealService handles deal-related business operations
type DealService struct {
	dealRepo       deal.DealRepository
	contactRepo    contact.ContactRepository
	eventPublisher shared.EventPublisher
}

// NewDealService creates a new DealService
func NewDealService(dealRepo deal.DealRepository, contactRepo contact.ContactRepository) *DealService {
	return &DealService{
		dealRepo:    dealRepo,
		contactRepo: contactRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DealService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DealService) publishDomainEvents(ctx context.Context, d *deal.Deal) {
	if s.eventPublisher == nil {
		return
	}
	events := d.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	d.ClearDomainEvents()
}

// Create creates a new deal attached to an existing contact
func (s *DealService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDealRequest) (*DealResponse, error) {
	// The contact must exist and belong to the tenant
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, req.ContactID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, shared.NewDomainError("CONTACT_DELETED", "Cannot open a deal for a deleted contact")
	}

	d, err := deal.NewDeal(tenantID, req.OwnerID, req.ContactID, req.Title, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	if req.Probability != nil {
		if err := d.SetProbability(*req.Probability); err != nil {
			return nil, err
		}
	}

	if req.ExpectedCloseDate != nil {
		if err := d.Update(req.Title, req.Amount, req.ExpectedCloseDate); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		if err := d.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// GetByID retrieves a deal by ID
func (s *DealService) GetByID(ctx context.Context, tenantID, dealID uuid.UUID) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	response := ToDealResponse(d)
	return &response, nil
}

// List retrieves a list of deals with filtering and pagination
func (s *DealService) List(ctx context.Context, tenantID uuid.UUID, filter DealListFilter) ([]DealListResponse, int64, error) {
	domainFilter := buildDealFilter(filter)

	deals, err := s.dealRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.dealRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]DealListResponse, len(deals))
	for i := range deals {
		responses[i] = ToDealListResponse(&deals[i])
	}

	return responses, total, nil
}

// ListByContact retrieves deals attached to a contact
func (s *DealService) ListByContact(ctx context.Context, tenantID, contactID uuid.UUID, filter DealListFilter) ([]DealListResponse, error) {
	domainFilter := buildDealFilter(filter)

	deals, err := s.dealRepo.FindByContact(ctx, tenantID, contactID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]DealListResponse, len(deals))
	for i := range deals {
		responses[i] = ToDealListResponse(&deals[i])
	}

	return responses, nil
}

// Update updates a deal's basic information
func (s *DealService) Update(ctx context.Context, tenantID, dealID uuid.UUID, req UpdateDealRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil || req.Amount != nil || req.ExpectedCloseDate != nil {
		title := d.Title
		amount := d.Amount
		expectedCloseDate := d.ExpectedCloseDate
		if req.Title != nil {
			title = *req.Title
		}
		if req.Amount != nil {
			amount = *req.Amount
		}
		if req.ExpectedCloseDate != nil {
			expectedCloseDate = req.ExpectedCloseDate
		}
		if err := d.Update(title, amount, expectedCloseDate); err != nil {
			return nil, err
		}
	}

	if req.Probability != nil {
		if err := d.SetProbability(*req.Probability); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := d.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.dealRepo.SaveWithLock(ctx, d); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// ChangeStage moves a deal to another open stage and records the transition
func (s *DealService) ChangeStage(ctx context.Context, tenantID, dealID, changedBy uuid.UUID, req ChangeStageRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	history, err := d.ChangeStage(deal.DealStage(req.Stage), changedBy, req.Note)
	if err != nil {
		return nil, err
	}

	if err := s.dealRepo.SaveWithHistory(ctx, d, history); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// CloseWon closes a deal as won
func (s *DealService) CloseWon(ctx context.Context, tenantID, dealID, changedBy uuid.UUID, req CloseDealRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	history, err := d.CloseWon(changedBy, req.Note)
	if err != nil {
		return nil, err
	}

	if err := s.dealRepo.SaveWithHistory(ctx, d, history); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// CloseLost closes a deal as lost with a mandatory reason
func (s *DealService) CloseLost(ctx context.Context, tenantID, dealID, changedBy uuid.UUID, req CloseDealRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	history, err := d.CloseLost(changedBy, req.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.dealRepo.SaveWithHistory(ctx, d, history); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// Reopen moves a closed deal back into the pipeline
func (s *DealService) Reopen(ctx context.Context, tenantID, dealID, changedBy uuid.UUID, req ReopenDealRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	history, err := d.Reopen(changedBy, req.Note)
	if err != nil {
		return nil, err
	}

	if err := s.dealRepo.SaveWithHistory(ctx, d, history); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// Reassign transfers deal ownership to another user
func (s *DealService) Reassign(ctx context.Context, tenantID, dealID uuid.UUID, req ReassignDealRequest) (*DealResponse, error) {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	if err := d.Reassign(req.OwnerID); err != nil {
		return nil, err
	}

	if err := s.dealRepo.SaveWithLock(ctx, d); err != nil {
		return nil, err
	}

	response := ToDealResponse(d)
	return &response, nil
}

// Delete soft deletes a deal
func (s *DealService) Delete(ctx context.Context, tenantID, dealID, deletedBy uuid.UUID) error {
	d, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID)
	if err != nil {
		return err
	}

	if err := d.Delete(deletedBy); err != nil {
		return err
	}

	if err := s.dealRepo.Save(ctx, d); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, d)
	return nil
}

// Restore reverses a soft delete
func (s *DealService) Restore(ctx context.Context, tenantID, dealID uuid.UUID) (*DealResponse, error) {
	d, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	if err := d.Undelete(); err != nil {
		return nil, err
	}

	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, d)

	response := ToDealResponse(d)
	return &response, nil
}

// GetStageHistory returns the recorded stage transitions for a deal
func (s *DealService) GetStageHistory(ctx context.Context, tenantID, dealID uuid.UUID) ([]StageHistoryResponse, error) {
	// Verify the deal exists in the tenant before exposing its history
	if _, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, dealID); err != nil {
		return nil, err
	}

	history, err := s.dealRepo.FindStageHistory(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	responses := make([]StageHistoryResponse, len(history))
	for i := range history {
		responses[i] = ToStageHistoryResponse(&history[i])
	}

	return responses, nil
}

// GetPipelineSummary returns per-stage counts and values plus the win rate
func (s *DealService) GetPipelineSummary(ctx context.Context, tenantID uuid.UUID) (*PipelineSummaryResponse, error) {
	summary, err := s.dealRepo.PipelineSummary(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	winRate, err := s.dealRepo.WinRate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stages := make([]StageSummaryResponse, len(summary))
	for i, stage := range summary {
		stages[i] = StageSummaryResponse{
			Stage: string(stage.Stage),
			Count: stage.Count,
			Value: stage.Value,
		}
	}

	return &PipelineSummaryResponse{
		Stages:  stages,
		WinRate: winRate,
	}, nil
}

func buildDealFilter(filter DealListFilter) shared.Filter {
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
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Stage != "" {
		domainFilter.Filters["stage"] = filter.Stage
	}
	if filter.ContactID != "" {
		if contactID, err := uuid.Parse(filter.ContactID); err == nil {
			domainFilter.Filters["contact_id"] = contactID
		}
	}
	if filter.OwnerID != "" {
		if ownerID, err := uuid.Parse(filter.OwnerID); err == nil {
			domainFilter.Filters["owner_id"] = ownerID
		}
	}

	return domainFilter
}
