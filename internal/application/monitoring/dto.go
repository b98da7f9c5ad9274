package monitoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/monitoring"
)

// CreateAlertRuleRequest creates an alert rule
type CreateAlertRuleRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	Metric     string  `json:"metric" binding:"required,oneof=cpu_percent memory_percent disk_percent goroutines"`
	Comparison string  `json:"comparison" binding:"required,oneof=above below"`
	Threshold  float64 `json:"threshold" binding:"gte=0"`
	Level      string  `json:"level" binding:"required,oneof=warning critical"`
}

// UpdateAlertRuleRequest updates an alert rule. The metric is fixed at
// creation.
type UpdateAlertRuleRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	Comparison string  `json:"comparison" binding:"required,oneof=above below"`
	Threshold  float64 `json:"threshold" binding:"gte=0"`
	Level      string  `json:"level" binding:"required,oneof=warning critical"`
	Enabled    bool    `json:"enabled"`
}

// AlertRuleResponse is the API representation of an alert rule
type AlertRuleResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Metric     string    `json:"metric"`
	Comparison string    `json:"comparison"`
	Threshold  float64   `json:"threshold"`
	Level      string    `json:"level"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AlertResponse is the API representation of a fired alert
type AlertResponse struct {
	ID         uuid.UUID  `json:"id"`
	RuleID     uuid.UUID  `json:"rule_id"`
	Metric     string     `json:"metric"`
	Level      string     `json:"level"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AlertListFilter filters the alert listing
type AlertListFilter struct {
	Resolved *bool `form:"resolved"`
	Page     int   `form:"page" binding:"omitempty,min=1"`
	PageSize int   `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SystemStatusResponse is a point-in-time view of the host
type SystemStatusResponse struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryUsed    uint64    `json:"memory_used"`
	MemoryTotal   uint64    `json:"memory_total"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskUsed      uint64    `json:"disk_used"`
	DiskTotal     uint64    `json:"disk_total"`
	DiskPercent   float64   `json:"disk_percent"`
	Goroutines    int       `json:"goroutines"`
	CollectedAt   time.Time `json:"collected_at"`
}

// ToAlertRuleResponse converts a domain rule to its API representation
func ToAlertRuleResponse(r *monitoring.AlertRule) *AlertRuleResponse {
	return &AlertRuleResponse{
		ID:         r.ID,
		Name:       r.Name,
		Metric:     string(r.Metric),
		Comparison: string(r.Comparison),
		Threshold:  r.Threshold,
		Level:      string(r.Level),
		Enabled:    r.Enabled,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ToAlertResponse converts a domain alert to its API representation
func ToAlertResponse(a *monitoring.Alert) *AlertResponse {
	return &AlertResponse{
		ID:         a.ID,
		RuleID:     a.RuleID,
		Metric:     string(a.Metric),
		Level:      string(a.Level),
		Message:    a.Message,
		Value:      a.Value,
		Resolved:   a.Resolved,
		ResolvedAt: a.ResolvedAt,
		CreatedAt:  a.CreatedAt,
	}
}

// ToSystemStatusResponse converts a sample to its API representation
func ToSystemStatusResponse(s monitoring.Sample) *SystemStatusResponse {
	return &SystemStatusResponse{
		CPUPercent:    s.CPUPercent,
		MemoryUsed:    s.MemoryUsed,
		MemoryTotal:   s.MemoryTotal,
		MemoryPercent: s.MemoryPercent,
		DiskUsed:      s.DiskUsed,
		DiskTotal:     s.DiskTotal,
		DiskPercent:   s.DiskPercent,
		Goroutines:    s.Goroutines,
		CollectedAt:   s.CollectedAt,
	}
}
