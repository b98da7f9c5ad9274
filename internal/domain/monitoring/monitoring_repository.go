package monitoring

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AlertRepository defines the interface for alert rule and alert persistence
type AlertRepository interface {
	// SaveRule creates or updates an alert rule
	SaveRule(ctx context.Context, rule *AlertRule) error

	// FindRuleByID finds a rule by ID
	FindRuleByID(ctx context.Context, id uuid.UUID) (*AlertRule, error)

	// FindRules lists all rules
	FindRules(ctx context.Context) ([]AlertRule, error)

	// DeleteRule removes a rule
	DeleteRule(ctx context.Context, id uuid.UUID) error

	// SaveAlert creates or updates an alert
	SaveAlert(ctx context.Context, alert *Alert) error

	// FindAlertByID finds an alert by ID
	FindAlertByID(ctx context.Context, id uuid.UUID) (*Alert, error)

	// FindOpenAlertForRule returns the unresolved alert for a rule, nil when none
	FindOpenAlertForRule(ctx context.Context, ruleID uuid.UUID) (*Alert, error)

	// FindAlerts lists alerts, newest first; filter supports resolved key
	FindAlerts(ctx context.Context, filter shared.Filter) ([]Alert, error)

	// CountAlerts counts alerts matching the filter
	CountAlerts(ctx context.Context, filter shared.Filter) (int64, error)
}
