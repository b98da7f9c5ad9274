package deal

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeDeal = "Deal"

// Event type constants
const (
	EventTypeDealCreated      = "DealCreated"
	EventTypeDealUpdated      = "DealUpdated"
	EventTypeDealStageChanged = "DealStageChanged"
	EventTypeDealClosed       = "DealClosed"
	EventTypeDealReopened     = "DealReopened"
	EventTypeDealDeleted      = "DealDeleted"
)

// DealCreatedEvent is published when a new deal enters the pipeline
type DealCreatedEvent struct {
	shared.BaseDomainEvent
	DealID    uuid.UUID       `json:"deal_id"`
	ContactID uuid.UUID       `json:"contact_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// NewDealCreatedEvent creates a new DealCreatedEvent
func NewDealCreatedEvent(d *Deal) *DealCreatedEvent {
	return &DealCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealCreated, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		ContactID:       d.ContactID,
		Title:           d.Title,
		Amount:          d.Amount,
		Currency:        d.Currency,
	}
}

// DealUpdatedEvent is published when a deal's basic fields change
type DealUpdatedEvent struct {
	shared.BaseDomainEvent
	DealID uuid.UUID       `json:"deal_id"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

// NewDealUpdatedEvent creates a new DealUpdatedEvent
func NewDealUpdatedEvent(d *Deal) *DealUpdatedEvent {
	return &DealUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealUpdated, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		Title:           d.Title,
		Amount:          d.Amount,
	}
}

// DealStageChangedEvent is published on every open-pipeline transition
type DealStageChangedEvent struct {
	shared.BaseDomainEvent
	DealID    uuid.UUID `json:"deal_id"`
	FromStage DealStage `json:"from_stage"`
	ToStage   DealStage `json:"to_stage"`
	ChangedBy uuid.UUID `json:"changed_by"`
}

// NewDealStageChangedEvent creates a new DealStageChangedEvent
func NewDealStageChangedEvent(d *Deal, from, to DealStage, changedBy uuid.UUID) *DealStageChangedEvent {
	event := &DealStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealStageChanged, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		FromStage:       from,
		ToStage:         to,
		ChangedBy:       changedBy,
	}
	event.SetActor(changedBy)
	return event
}

// DealClosedEvent is published when a deal closes won or lost
type DealClosedEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID       `json:"deal_id"`
	FromStage  DealStage       `json:"from_stage"`
	Won        bool            `json:"won"`
	Amount     decimal.Decimal `json:"amount"`
	LostReason string          `json:"lost_reason,omitempty"`
	ClosedBy   uuid.UUID       `json:"closed_by"`
}

// NewDealClosedEvent creates a new DealClosedEvent
func NewDealClosedEvent(d *Deal, from DealStage, won bool, lostReason string, closedBy uuid.UUID) *DealClosedEvent {
	event := &DealClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealClosed, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		FromStage:       from,
		Won:             won,
		Amount:          d.Amount,
		LostReason:      lostReason,
		ClosedBy:        closedBy,
	}
	event.SetActor(closedBy)
	return event
}

// DealReopenedEvent is published when a closed deal returns to negotiation
type DealReopenedEvent struct {
	shared.BaseDomainEvent
	DealID    uuid.UUID `json:"deal_id"`
	FromStage DealStage `json:"from_stage"`
}

// NewDealReopenedEvent creates a new DealReopenedEvent
func NewDealReopenedEvent(d *Deal, from DealStage, reopenedBy uuid.UUID) *DealReopenedEvent {
	event := &DealReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealReopened, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		FromStage:       from,
	}
	event.SetActor(reopenedBy)
	return event
}

// DealDeletedEvent is published when a deal is soft deleted
type DealDeletedEvent struct {
	shared.BaseDomainEvent
	DealID uuid.UUID `json:"deal_id"`
	Title  string    `json:"title"`
}

// NewDealDeletedEvent creates a new DealDeletedEvent
func NewDealDeletedEvent(d *Deal, deletedBy uuid.UUID) *DealDeletedEvent {
	event := &DealDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealDeleted, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		Title:           d.Title,
	}
	event.SetActor(deletedBy)
	return event
}
