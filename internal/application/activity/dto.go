package activity

import (
	"time"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/google/uuid"
)

// CreateActivityRequest represents a request to create a new activity
type CreateActivityRequest struct {
	Type        string     `json:"type" binding:"required,oneof=task call meeting email"`
	Subject     string     `json:"subject" binding:"required,min=1,max=200"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low normal high"`
	ContactID   *uuid.UUID `json:"contact_id"`
	DealID      *uuid.UUID `json:"deal_id"`
	DueDate     *time.Time `json:"due_date"`
	OwnerID     uuid.UUID  `json:"-"` // Set from JWT context, not from request body
}

// UpdateActivityRequest represents a request to update an activity
type UpdateActivityRequest struct {
	Subject     *string    `json:"subject" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low normal high"`
	DueDate     *time.Time `json:"due_date"`
}

// ReassignActivityRequest represents a request to change activity ownership
type ReassignActivityRequest struct {
	OwnerID uuid.UUID `json:"owner_id" binding:"required"`
}

// AddCommentRequest represents a request to add a comment to an activity
type AddCommentRequest struct {
	Body     string    `json:"body" binding:"required,min=1,max=4000"`
	AuthorID uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// ActivityResponse represents an activity in API responses
type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	OwnerID     *uuid.UUID `json:"owner_id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ContactID   *uuid.UUID `json:"contact_id"`
	DealID      *uuid.UUID `json:"deal_id"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	Overdue     bool       `json:"overdue"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// ActivityListResponse represents a list item for activities
type ActivityListResponse struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	ContactID *uuid.UUID `json:"contact_id"`
	DealID    *uuid.UUID `json:"deal_id"`
	DueDate   *time.Time `json:"due_date"`
	Overdue   bool       `json:"overdue"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActivityListFilter represents filter options for activity list
type ActivityListFilter struct {
	Search    string `form:"search"`
	Type      string `form:"type" binding:"omitempty,oneof=task call meeting email"`
	Status    string `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority  string `form:"priority" binding:"omitempty,oneof=low normal high"`
	ContactID string `form:"contact_id" binding:"omitempty,uuid"`
	DealID    string `form:"deal_id" binding:"omitempty,uuid"`
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CommentResponse represents an activity comment in API responses
type CommentResponse struct {
	ID         uuid.UUID `json:"id"`
	ActivityID uuid.UUID `json:"activity_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusCountResponse represents activity counts per status
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ToActivityResponse converts a domain Activity to ActivityResponse
func ToActivityResponse(a *activity.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		TenantID:    a.TenantID,
		OwnerID:     a.OwnerID,
		Type:        string(a.Type),
		Subject:     a.Subject,
		Description: a.Description,
		Status:      string(a.Status),
		Priority:    string(a.Priority),
		ContactID:   a.ContactID,
		DealID:      a.DealID,
		DueDate:     a.DueDate,
		CompletedAt: a.CompletedAt,
		Overdue:     a.IsOverdue(time.Now()),
		DeletedAt:   a.DeletedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}

// ToActivityListResponse converts a domain Activity to ActivityListResponse
func ToActivityListResponse(a *activity.Activity) ActivityListResponse {
	return ActivityListResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Type:      string(a.Type),
		Subject:   a.Subject,
		Status:    string(a.Status),
		Priority:  string(a.Priority),
		ContactID: a.ContactID,
		DealID:    a.DealID,
		DueDate:   a.DueDate,
		Overdue:   a.IsOverdue(time.Now()),
		CreatedAt: a.CreatedAt,
	}
}

// ToCommentResponse converts a domain Comment to CommentResponse
func ToCommentResponse(c *activity.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		ActivityID: c.ActivityID,
		AuthorID:   c.AuthorID,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}
