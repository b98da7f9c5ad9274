package deal

import (
	"time"

	"github.com/crm/backend/internal/domain/deal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDealRequest represents a request to create a new deal
type CreateDealRequest struct {
	Title             string          `json:"title" binding:"required,min=1,max=200"`
	ContactID         uuid.UUID       `json:"contact_id" binding:"required"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency" binding:"omitempty,len=3"`
	Probability       *int            `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	Notes             string          `json:"notes"`
	OwnerID           uuid.UUID       `json:"-"` // Set from JWT context, not from request body
}

// UpdateDealRequest represents a request to update a deal
type UpdateDealRequest struct {
	Title             *string          `json:"title" binding:"omitempty,min=1,max=200"`
	Amount            *decimal.Decimal `json:"amount"`
	Probability       *int             `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date"`
	Notes             *string          `json:"notes"`
}

// ChangeStageRequest represents a request to move a deal to another open stage
type ChangeStageRequest struct {
	Stage string `json:"stage" binding:"required,oneof=prospect qualified proposal negotiation"`
	Note  string `json:"note" binding:"max=2000"`
}

// CloseDealRequest represents a request to close a deal
type CloseDealRequest struct {
	Note   string `json:"note" binding:"max=2000"`
	Reason string `json:"reason" binding:"max=2000"`
}

// ReopenDealRequest represents a request to reopen a closed deal
type ReopenDealRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// ReassignDealRequest represents a request to change deal ownership
type ReassignDealRequest struct {
	OwnerID uuid.UUID `json:"owner_id" binding:"required"`
}

// DealResponse represents a deal in API responses
type DealResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	OwnerID           *uuid.UUID      `json:"owner_id"`
	ContactID         uuid.UUID       `json:"contact_id"`
	Title             string          `json:"title"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Stage             string          `json:"stage"`
	Probability       int             `json:"probability"`
	WeightedValue     decimal.Decimal `json:"weighted_value"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	ActualCloseDate   *time.Time      `json:"actual_close_date"`
	LostReason        string          `json:"lost_reason,omitempty"`
	Notes             string          `json:"notes"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// DealListResponse represents a list item for deals
type DealListResponse struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           *uuid.UUID      `json:"owner_id"`
	ContactID         uuid.UUID       `json:"contact_id"`
	Title             string          `json:"title"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Stage             string          `json:"stage"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	CreatedAt         time.Time       `json:"created_at"`
}

// DealListFilter represents filter options for deal list
type DealListFilter struct {
	Search    string `form:"search"`
	Stage     string `form:"stage" binding:"omitempty,oneof=prospect qualified proposal negotiation closed_won closed_lost"`
	ContactID string `form:"contact_id" binding:"omitempty,uuid"`
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StageHistoryResponse represents a stage transition in API responses
type StageHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	DealID    uuid.UUID `json:"deal_id"`
	FromStage string    `json:"from_stage"`
	ToStage   string    `json:"to_stage"`
	ChangedBy uuid.UUID `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PipelineSummaryResponse represents per-stage totals for the pipeline view
type PipelineSummaryResponse struct {
	Stages  []StageSummaryResponse `json:"stages"`
	WinRate float64                `json:"win_rate"`
}

// StageSummaryResponse represents totals for a single stage
type StageSummaryResponse struct {
	Stage string          `json:"stage"`
	Count int64           `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// ToDealResponse converts a domain Deal to DealResponse
func ToDealResponse(d *deal.Deal) DealResponse {
	return DealResponse{
		ID:                d.ID,
		TenantID:          d.TenantID,
		OwnerID:           d.OwnerID,
		ContactID:         d.ContactID,
		Title:             d.Title,
		Amount:            d.Amount,
		Currency:          d.Currency,
		Stage:             string(d.Stage),
		Probability:       d.Probability,
		WeightedValue:     d.WeightedValue(),
		ExpectedCloseDate: d.ExpectedCloseDate,
		ActualCloseDate:   d.ActualCloseDate,
		LostReason:        d.LostReason,
		Notes:             d.Notes,
		DeletedAt:         d.DeletedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		Version:           d.Version,
	}
}

// ToDealListResponse converts a domain Deal to DealListResponse
func ToDealListResponse(d *deal.Deal) DealListResponse {
	return DealListResponse{
		ID:                d.ID,
		OwnerID:           d.OwnerID,
		ContactID:         d.ContactID,
		Title:             d.Title,
		Amount:            d.Amount,
		Currency:          d.Currency,
		Stage:             string(d.Stage),
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		CreatedAt:         d.CreatedAt,
	}
}

// ToStageHistoryResponse converts a domain StageHistory to StageHistoryResponse
func ToStageHistoryResponse(h *deal.StageHistory) StageHistoryResponse {
	return StageHistoryResponse{
		ID:        h.ID,
		DealID:    h.DealID,
		FromStage: string(h.FromStage),
		ToStage:   string(h.ToStage),
		ChangedBy: h.ChangedBy,
		Note:      h.Note,
		CreatedAt: h.CreatedAt,
	}
}
