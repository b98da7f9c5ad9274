package deal

import (
	"time"

	"github.com/google/uuid"
)

// StageHistory records a single pipeline transition. Rows are append-only.
type StageHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	DealID    uuid.UUID `gorm:"type:uuid;not null;index"`
	FromStage DealStage `gorm:"type:varchar(20);not null"`
	ToStage   DealStage `gorm:"type:varchar(20);not null"`
	ChangedBy uuid.UUID `gorm:"type:uuid;not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (StageHistory) TableName() string {
	return "deal_stage_history"
}

// NewStageHistory creates a transition record for a deal
func NewStageHistory(d *Deal, from, to DealStage, changedBy uuid.UUID, note string) *StageHistory {
	return &StageHistory{
		ID:        uuid.New(),
		TenantID:  d.TenantID,
		DealID:    d.ID,
		FromStage: from,
		ToStage:   to,
		ChangedBy: changedBy,
		Note:      note,
		CreatedAt: time.Now(),
	}
}
