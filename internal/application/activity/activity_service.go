package activity

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActivityService handles activity and comment business operations
type ActivityService struct {
	activityRepo   activity.ActivityRepository
	contactRepo    contact.ContactRepository
	dealRepo       deal.DealRepository
	eventPublisher shared.EventPublisher
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo activity.ActivityRepository, contactRepo contact.ContactRepository, dealRepo deal.DealRepository) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		contactRepo:  contactRepo,
		dealRepo:     dealRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ActivityService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ActivityService) publishDomainEvents(ctx context.Context, a *activity.Activity) {
	if s.eventPublisher == nil {
		return
	}
	events := a.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	a.ClearDomainEvents()
}

// Create creates a new activity linked to a contact, a deal, or both
func (s *ActivityService) Create(ctx context.Context, tenantID uuid.UUID, req CreateActivityRequest) (*ActivityResponse, error) {
	// Linked records must exist within the tenant
	if req.ContactID != nil {
		if _, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, *req.ContactID); err != nil {
			return nil, err
		}
	}
	if req.DealID != nil {
		if _, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, *req.DealID); err != nil {
			return nil, err
		}
	}

	a, err := activity.NewActivity(tenantID, req.OwnerID, activity.ActivityType(req.Type), req.Subject, req.ContactID, req.DealID, req.DueDate)
	if err != nil {
		return nil, err
	}

	if req.Description != "" || req.Priority != "" {
		priority := a.Priority
		if req.Priority != "" {
			priority = activity.ActivityPriority(req.Priority)
		}
		if err := a.Update(req.Subject, req.Description, priority, req.DueDate); err != nil {
			return nil, err
		}
	}

	if err := s.activityRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, a)

	response := ToActivityResponse(a)
	return &response, nil
}

// GetByID retrieves an activity by ID
func (s *ActivityService) GetByID(ctx context.Context, tenantID, activityID uuid.UUID) (*ActivityResponse, error) {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	response := ToActivityResponse(a)
	return &response, nil
}

// List retrieves a list of activities with filtering and pagination
func (s *ActivityService) List(ctx context.Context, tenantID uuid.UUID, filter ActivityListFilter) ([]ActivityListResponse, int64, error) {
	domainFilter := buildActivityFilter(filter)

	activities, err := s.activityRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.activityRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ActivityListResponse, len(activities))
	for i := range activities {
		responses[i] = ToActivityListResponse(&activities[i])
	}

	return responses, total, nil
}

// ListOverdue retrieves activities past their due date and still open
func (s *ActivityService) ListOverdue(ctx context.Context, tenantID uuid.UUID, filter ActivityListFilter) ([]ActivityListResponse, error) {
	domainFilter := buildActivityFilter(filter)

	activities, err := s.activityRepo.FindOverdue(ctx, tenantID, time.Now(), domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]ActivityListResponse, len(activities))
	for i := range activities {
		responses[i] = ToActivityListResponse(&activities[i])
	}

	return responses, nil
}

// Update updates an activity's information
func (s *ActivityService) Update(ctx context.Context, tenantID, activityID uuid.UUID, req UpdateActivityRequest) (*ActivityResponse, error) {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	subject := a.Subject
	description := a.Description
	priority := a.Priority
	dueDate := a.DueDate
	if req.Subject != nil {
		subject = *req.Subject
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Priority != nil {
		priority = activity.ActivityPriority(*req.Priority)
	}
	if req.DueDate != nil {
		dueDate = req.DueDate
	}

	if err := a.Update(subject, description, priority, dueDate); err != nil {
		return nil, err
	}

	if err := s.activityRepo.SaveWithLock(ctx, a); err != nil {
		return nil, err
	}

	response := ToActivityResponse(a)
	return &response, nil
}

// Start moves a pending activity into progress
func (s *ActivityService) Start(ctx context.Context, tenantID, activityID uuid.UUID) (*ActivityResponse, error) {
	return s.transition(ctx, tenantID, activityID, (*activity.Activity).Start)
}

// Complete marks an activity as done
func (s *ActivityService) Complete(ctx context.Context, tenantID, activityID uuid.UUID) (*ActivityResponse, error) {
	return s.transition(ctx, tenantID, activityID, (*activity.Activity).Complete)
}

// Cancel marks an activity as cancelled
func (s *ActivityService) Cancel(ctx context.Context, tenantID, activityID uuid.UUID) (*ActivityResponse, error) {
	return s.transition(ctx, tenantID, activityID, (*activity.Activity).Cancel)
}

func (s *ActivityService) transition(ctx context.Context, tenantID, activityID uuid.UUID, op func(*activity.Activity) error) (*ActivityResponse, error) {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	if err := op(a); err != nil {
		return nil, err
	}

	if err := s.activityRepo.SaveWithLock(ctx, a); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, a)

	response := ToActivityResponse(a)
	return &response, nil
}

// Reassign transfers activity ownership to another user
func (s *ActivityService) Reassign(ctx context.Context, tenantID, activityID uuid.UUID, req ReassignActivityRequest) (*ActivityResponse, error) {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	if err := a.Reassign(req.OwnerID); err != nil {
		return nil, err
	}

	if err := s.activityRepo.SaveWithLock(ctx, a); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, a)

	response := ToActivityResponse(a)
	return &response, nil
}

// Delete soft deletes an activity
func (s *ActivityService) Delete(ctx context.Context, tenantID, activityID, deletedBy uuid.UUID) error {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return err
	}

	if err := a.Delete(deletedBy); err != nil {
		return err
	}

	return s.activityRepo.Save(ctx, a)
}

// AddComment appends a comment to an activity
func (s *ActivityService) AddComment(ctx context.Context, tenantID, activityID uuid.UUID, req AddCommentRequest) (*CommentResponse, error) {
	a, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	comment, err := activity.NewComment(a, req.AuthorID, req.Body)
	if err != nil {
		return nil, err
	}

	if err := s.activityRepo.SaveComment(ctx, comment); err != nil {
		return nil, err
	}

	response := ToCommentResponse(comment)
	return &response, nil
}

// ListComments returns all comments on an activity, oldest first
func (s *ActivityService) ListComments(ctx context.Context, tenantID, activityID uuid.UUID) ([]CommentResponse, error) {
	if _, err := s.activityRepo.FindByIDForTenant(ctx, tenantID, activityID); err != nil {
		return nil, err
	}

	comments, err := s.activityRepo.FindComments(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}

	responses := make([]CommentResponse, len(comments))
	for i := range comments {
		responses[i] = ToCommentResponse(&comments[i])
	}

	return responses, nil
}

// DeleteComment removes a comment from an activity
func (s *ActivityService) DeleteComment(ctx context.Context, tenantID, commentID uuid.UUID) error {
	return s.activityRepo.DeleteComment(ctx, tenantID, commentID)
}

// CountByStatus returns activity counts grouped by status
func (s *ActivityService) CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]StatusCountResponse, error) {
	counts, err := s.activityRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Stable order for API consumers
	order := []activity.ActivityStatus{
		activity.ActivityStatusPending,
		activity.ActivityStatusInProgress,
		activity.ActivityStatusCompleted,
		activity.ActivityStatusCancelled,
	}
	responses := make([]StatusCountResponse, 0, len(order))
	for _, status := range order {
		responses = append(responses, StatusCountResponse{
			Status: string(status),
			Count:  counts[status],
		})
	}

	return responses, nil
}

func buildActivityFilter(filter ActivityListFilter) shared.Filter {
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

	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.ContactID != "" {
		if contactID, err := uuid.Parse(filter.ContactID); err == nil {
			domainFilter.Filters["contact_id"] = contactID
		}
	}
	if filter.DealID != "" {
		if dealID, err := uuid.Parse(filter.DealID); err == nil {
			domainFilter.Filters["deal_id"] = dealID
		}
	}
	if filter.OwnerID != "" {
		if ownerID, err := uuid.Parse(filter.OwnerID); err == nil {
			domainFilter.Filters["owner_id"] = ownerID
		}
	}

	return domainFilter
}
