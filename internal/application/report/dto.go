package report

import (
	"encoding/json"
	"time"

	"github.com/crm/backend/internal/domain/report"
	"github.com/google/uuid"
)

// SnapshotQuery selects one stored snapshot
type SnapshotQuery struct {
	Kind        string    `form:"kind" binding:"required,oneof=pipeline activity"`
	PeriodStart time.Time `form:"period_start" binding:"required" time_format:"2006-01-02"`
}

// SnapshotResponse represents a stored report snapshot
type SnapshotResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Report      json.RawMessage `json:"report"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ToSnapshotResponse converts a domain Snapshot to SnapshotResponse
func ToSnapshotResponse(s *report.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:          s.ID,
		Kind:        string(s.Kind),
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
		Report:      json.RawMessage(s.Payload),
		GeneratedAt: s.GeneratedAt,
	}
}
