package audit

import (
	"time"

	"github.com/crm/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// EntryResponse represents an audit entry in responses
type EntryResponse struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resource_type"`
	ResourceID   *uuid.UUID `json:"resource_id,omitempty"`
	Detail       string     `json:"detail"`
	RequestIP    string     `json:"request_ip,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EntryListFilter represents filter options for audit log list
type EntryListFilter struct {
	Action       string `form:"action" binding:"omitempty,oneof=create update delete status_change login login_failed logout"`
	ResourceType string `form:"resource_type"`
	ResourceID   string `form:"resource_id" binding:"omitempty,uuid"`
	ActorID      string `form:"actor_id" binding:"omitempty,uuid"`
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurgeResult reports how many entries a retention purge removed
type PurgeResult struct {
	Removed int64     `json:"removed"`
	Cutoff  time.Time `json:"cutoff"`
}

// ToEntryResponse converts a domain Entry to EntryResponse
func ToEntryResponse(e *audit.Entry) EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		TenantID:     e.TenantID,
		ActorID:      e.ActorID,
		Action:       string(e.Action),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Detail:       e.Detail,
		RequestIP:    e.RequestIP,
		CreatedAt:    e.CreatedAt,
	}
}
