package deal

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealStage represents a stage in the sales pipeline
type DealStage string

const (
	StageProspect    DealStage = "prospect"
	StageQualified   DealStage = "qualified"
	StageProposal    DealStage = "proposal"
	StageNegotiation DealStage = "negotiation"
	StageClosedWon   DealStage = "closed_won"
	StageClosedLost  DealStage = "closed_lost"
)

// IsValid checks if the stage is a known DealStage
func (s DealStage) IsValid() bool {
	switch s {
	case StageProspect, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

// String returns the string representation of DealStage
func (s DealStage) String() string {
	return string(s)
}

// IsClosed reports whether the stage is terminal
func (s DealStage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// CanTransitionTo checks if the stage can move to the target stage.
// Open stages advance one step at a time; any open stage may close lost.
// Closed stages are terminal; reopening is a separate operation.
func (s DealStage) CanTransitionTo(target DealStage) bool {
	if target == StageClosedLost {
		return !s.IsClosed()
	}
	switch s {
	case StageProspect:
		return target == StageQualified
	case StageQualified:
		return target == StageProposal
	case StageProposal:
		return target == StageNegotiation
	case StageNegotiation:
		return target == StageClosedWon
	case StageClosedWon, StageClosedLost:
		return false
	}
	return false
}

// DefaultProbability returns the suggested win probability for a stage
func (s DealStage) DefaultProbability() int {
	switch s {
	case StageProspect:
		return 10
	case StageQualified:
		return 25
	case StageProposal:
		return 50
	case StageNegotiation:
		return 75
	case StageClosedWon:
		return 100
	case StageClosedLost:
		return 0
	}
	return 0
}

// Deal represents a sales opportunity against a contact.
// It is the aggregate root for pipeline operations.
type Deal struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Title             string          `gorm:"type:varchar(200);not null"`
	ContactID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Stage             DealStage       `gorm:"type:varchar(20);not null;default:'prospect';index"`
	Probability       int             `gorm:"not null;default:10"`
	ExpectedCloseDate *time.Time
	ActualCloseDate   *time.Time
	LostReason        string `gorm:"type:text"`
	Notes             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Deal) TableName() string {
	return "deals"
}

// NewDeal creates a new deal in the prospect stage
func NewDeal(tenantID, ownerID, contactID uuid.UUID, title string, amount decimal.Decimal, currency string) (*Deal, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if contactID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Deal must reference a contact")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deal amount cannot be negative")
	}
	if currency == "" {
		currency = "USD"
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}

	deal := &Deal{
		TenantAggregateRoot: shared.NewOwnedTenantAggregateRoot(tenantID, ownerID),
		Title:               title,
		ContactID:           contactID,
		Amount:              amount,
		Currency:            currency,
		Stage:               StageProspect,
		Probability:         StageProspect.DefaultProbability(),
	}

	deal.AddDomainEvent(NewDealCreatedEvent(deal))

	return deal, nil
}

// Update updates the deal's basic information
func (d *Deal) Update(title string, amount decimal.Decimal, expectedCloseDate *time.Time) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	if err := validateTitle(title); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Deal amount cannot be negative")
	}

	d.Title = title
	d.Amount = amount
	d.ExpectedCloseDate = expectedCloseDate
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDealUpdatedEvent(d))

	return nil
}

// SetProbability overrides the win probability
func (d *Deal) SetProbability(probability int) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	if probability < 0 || probability > 100 {
		return shared.NewDomainError("INVALID_PROBABILITY", "Probability must be between 0 and 100")
	}

	d.Probability = probability
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetNotes sets free-form notes
func (d *Deal) SetNotes(notes string) error {
	if err := d.ensureMutable(); err != nil {
		return err
	}
	d.Notes = notes
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// ChangeStage advances the deal along the pipeline. A transition into a
// closed stage must go through CloseWon/CloseLost instead.
func (d *Deal) ChangeStage(target DealStage, changedBy uuid.UUID, note string) (*StageHistory, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STAGE", "Unknown deal stage")
	}
	if target.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STAGE", "Use close operations to enter a closed stage")
	}
	if !d.Stage.CanTransitionTo(target) {
		return nil, shared.NewDomainError("INVALID_STAGE_TRANSITION",
			"Cannot move deal from "+d.Stage.String()+" to "+target.String())
	}

	from := d.Stage
	d.Stage = target
	d.Probability = target.DefaultProbability()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	history := NewStageHistory(d, from, target, changedBy, note)
	d.AddDomainEvent(NewDealStageChangedEvent(d, from, target, changedBy))

	return history, nil
}

// CloseWon closes the deal as won from the negotiation stage
func (d *Deal) CloseWon(changedBy uuid.UUID, note string) (*StageHistory, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !d.Stage.CanTransitionTo(StageClosedWon) {
		return nil, shared.NewDomainError("INVALID_STAGE_TRANSITION",
			"Cannot close deal as won from "+d.Stage.String())
	}

	from := d.Stage
	now := time.Now()
	d.Stage = StageClosedWon
	d.Probability = 100
	d.ActualCloseDate = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	history := NewStageHistory(d, from, StageClosedWon, changedBy, note)
	d.AddDomainEvent(NewDealClosedEvent(d, from, true, "", changedBy))

	return history, nil
}

// CloseLost closes the deal as lost from any open stage. A reason is required.
func (d *Deal) CloseLost(changedBy uuid.UUID, reason string) (*StageHistory, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, shared.NewDomainError("LOST_REASON_REQUIRED", "Closing a deal as lost requires a reason")
	}
	if !d.Stage.CanTransitionTo(StageClosedLost) {
		return nil, shared.NewDomainError("INVALID_STAGE_TRANSITION",
			"Cannot close deal as lost from "+d.Stage.String())
	}

	from := d.Stage
	now := time.Now()
	d.Stage = StageClosedLost
	d.Probability = 0
	d.LostReason = reason
	d.ActualCloseDate = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	history := NewStageHistory(d, from, StageClosedLost, changedBy, reason)
	d.AddDomainEvent(NewDealClosedEvent(d, from, false, reason, changedBy))

	return history, nil
}

// Reopen moves a closed deal back into negotiation
func (d *Deal) Reopen(changedBy uuid.UUID, note string) (*StageHistory, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !d.Stage.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STAGE_TRANSITION", "Only a closed deal can be reopened")
	}

	from := d.Stage
	d.Stage = StageNegotiation
	d.Probability = StageNegotiation.DefaultProbability()
	d.ActualCloseDate = nil
	d.LostReason = ""
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	history := NewStageHistory(d, from, StageNegotiation, changedBy, note)
	d.AddDomainEvent(NewDealReopenedEvent(d, from, changedBy))

	return history, nil
}

// Reassign changes the owning user
func (d *Deal) Reassign(ownerID uuid.UUID) error {
	if err := d.ensureMutable(); err != nil {
		return err
	}
	if ownerID == uuid.Nil {
		return shared.NewDomainError("INVALID_OWNER", "Owner cannot be empty")
	}

	d.SetOwner(ownerID)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Delete soft deletes the deal
func (d *Deal) Delete(by uuid.UUID) error {
	if d.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED", "Deal is already deleted")
	}

	d.MarkDeleted(by)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDealDeletedEvent(d, by))

	return nil
}

// Undelete restores a soft-deleted deal
func (d *Deal) Undelete() error {
	if !d.IsDeleted() {
		return shared.NewDomainError("NOT_DELETED", "Deal is not deleted")
	}

	d.Restore()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// IsOpen reports whether the deal is still in play
func (d *Deal) IsOpen() bool {
	return !d.Stage.IsClosed()
}

// WeightedValue returns amount scaled by win probability
func (d *Deal) WeightedValue() decimal.Decimal {
	return d.Amount.Mul(decimal.NewFromInt(int64(d.Probability))).Div(decimal.NewFromInt(100))
}

func (d *Deal) ensureMutable() error {
	if d.IsDeleted() {
		return shared.NewDomainError("DEAL_DELETED", "Cannot modify a deleted deal")
	}
	return nil
}

func (d *Deal) ensureOpen() error {
	if err := d.ensureMutable(); err != nil {
		return err
	}
	if d.Stage.IsClosed() {
		return shared.NewDomainError("DEAL_CLOSED", "Cannot modify a closed deal")
	}
	return nil
}

// Validation functions

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Deal title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Deal title cannot exceed 200 characters")
	}
	return nil
}

func validateCurrency(currency string) error {
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
		}
	}
	return nil
}
