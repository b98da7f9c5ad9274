package monitoring

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Metric names an observable system quantity
type Metric string

const (
	MetricCPUPercent    Metric = "cpu_percent"
	MetricMemoryPercent Metric = "memory_percent"
	MetricDiskPercent   Metric = "disk_percent"
	MetricGoroutines    Metric = "goroutines"
)

// IsValid checks if the metric is known
func (m Metric) IsValid() bool {
	switch m {
	case MetricCPUPercent, MetricMemoryPercent, MetricDiskPercent, MetricGoroutines:
		return true
	}
	return false
}

// Comparison decides how a sample is tested against a threshold
type Comparison string

const (
	ComparisonAbove Comparison = "above"
	ComparisonBelow Comparison = "below"
)

// IsValid checks if the comparison is known
func (c Comparison) IsValid() bool {
	return c == ComparisonAbove || c == ComparisonBelow
}

// AlertLevel grades alert severity
type AlertLevel string

const (
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// IsValid checks if the level is known
func (l AlertLevel) IsValid() bool {
	return l == AlertLevelWarning || l == AlertLevelCritical
}

// Sample is one reading of the system counters
type Sample struct {
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

// Value returns the sample reading for a metric
func (s Sample) Value(m Metric) float64 {
	switch m {
	case MetricCPUPercent:
		return s.CPUPercent
	case MetricMemoryPercent:
		return s.MemoryPercent
	case MetricDiskPercent:
		return s.DiskPercent
	case MetricGoroutines:
		return float64(s.Goroutines)
	}
	return 0
}

// AlertRule describes when an alert should fire
type AlertRule struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name       string     `gorm:"type:varchar(100);not null"`
	Metric     Metric     `gorm:"type:varchar(30);not null"`
	Comparison Comparison `gorm:"type:varchar(10);not null;default:'above'"`
	Threshold  float64    `gorm:"not null"`
	Level      AlertLevel `gorm:"type:varchar(10);not null;default:'warning'"`
	Enabled    bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (AlertRule) TableName() string {
	return "alert_rules"
}

// NewAlertRule creates an alert rule
func NewAlertRule(name string, metric Metric, comparison Comparison, threshold float64, level AlertLevel) (*AlertRule, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Alert rule name cannot be empty")
	}
	if !metric.IsValid() {
		return nil, shared.NewDomainError("INVALID_METRIC", "Unknown metric")
	}
	if !comparison.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMPARISON", "Comparison must be above or below")
	}
	if !level.IsValid() {
		return nil, shared.NewDomainError("INVALID_LEVEL", "Level must be warning or critical")
	}
	if threshold < 0 {
		return nil, shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}

	now := time.Now()
	return &AlertRule{
		ID:         uuid.New(),
		Name:       name,
		Metric:     metric,
		Comparison: comparison,
		Threshold:  threshold,
		Level:      level,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Update changes threshold, comparison and level
func (r *AlertRule) Update(name string, comparison Comparison, threshold float64, level AlertLevel, enabled bool) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Alert rule name cannot be empty")
	}
	if !comparison.IsValid() {
		return shared.NewDomainError("INVALID_COMPARISON", "Comparison must be above or below")
	}
	if !level.IsValid() {
		return shared.NewDomainError("INVALID_LEVEL", "Level must be warning or critical")
	}
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}

	r.Name = name
	r.Comparison = comparison
	r.Threshold = threshold
	r.Level = level
	r.Enabled = enabled
	r.UpdatedAt = time.Now()

	return nil
}

// Breached tests a sample against the rule
func (r *AlertRule) Breached(s Sample) bool {
	if !r.Enabled {
		return false
	}
	v := s.Value(r.Metric)
	if r.Comparison == ComparisonAbove {
		return v > r.Threshold
	}
	return v < r.Threshold
}

// Alert is a fired rule breach. An open alert resolves automatically when
// the metric returns within threshold, or manually through the API.
type Alert struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RuleID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Metric     Metric     `gorm:"type:varchar(30);not null"`
	Level      AlertLevel `gorm:"type:varchar(10);not null"`
	Message    string     `gorm:"type:text;not null"`
	Value      float64    `gorm:"not null"`
	Resolved   bool       `gorm:"not null;default:false;index"`
	ResolvedAt *time.Time
	CreatedAt  time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "alerts"
}

// NewAlert fires an alert for a breached rule
func NewAlert(rule *AlertRule, message string, value float64) *Alert {
	return &Alert{
		ID:        uuid.New(),
		RuleID:    rule.ID,
		Metric:    rule.Metric,
		Level:     rule.Level,
		Message:   message,
		Value:     value,
		CreatedAt: time.Now(),
	}
}

// Resolve closes the alert
func (a *Alert) Resolve() error {
	if a.Resolved {
		return shared.NewDomainError("ALREADY_RESOLVED", "Alert is already resolved")
	}

	now := time.Now()
	a.Resolved = true
	a.ResolvedAt = &now

	return nil
}
