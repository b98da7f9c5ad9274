package monitoring

import (
	"context"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/monitoring"
	"github.com/crm/backend/internal/domain/shared"
)

// SampleSource exposes the most recent system sample. The background
// collector implements it.
type SampleSource interface {
	Latest() (monitoring.Sample, bool)
}

// MonitoringService manages alert rules, fired alerts and the system
// status view. Rules and alerts are deployment wide, not tenant scoped.
type MonitoringService struct {
	alerts  monitoring.AlertRepository
	samples SampleSource
}

// NewMonitoringService creates a monitoring service
func NewMonitoringService(alerts monitoring.AlertRepository, samples SampleSource) *MonitoringService {
	return &MonitoringService{
		alerts:  alerts,
		samples: samples,
	}
}

// CreateRule creates an alert rule
func (s *MonitoringService) CreateRule(ctx context.Context, req CreateAlertRuleRequest) (*AlertRuleResponse, error) {
	rule, err := monitoring.NewAlertRule(
		req.Name,
		monitoring.Metric(req.Metric),
		monitoring.Comparison(req.Comparison),
		req.Threshold,
		monitoring.AlertLevel(req.Level),
	)
	if err != nil {
		return nil, err
	}

	if err := s.alerts.SaveRule(ctx, rule); err != nil {
		return nil, err
	}

	return ToAlertRuleResponse(rule), nil
}

// GetRule returns one alert rule
func (s *MonitoringService) GetRule(ctx context.Context, ruleID uuid.UUID) (*AlertRuleResponse, error) {
	rule, err := s.alerts.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return ToAlertRuleResponse(rule), nil
}

// ListRules returns all alert rules
func (s *MonitoringService) ListRules(ctx context.Context) ([]AlertRuleResponse, error) {
	rules, err := s.alerts.FindRules(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]AlertRuleResponse, len(rules))
	for i := range rules {
		responses[i] = *ToAlertRuleResponse(&rules[i])
	}
	return responses, nil
}

// UpdateRule updates an alert rule
func (s *MonitoringService) UpdateRule(ctx context.Context, ruleID uuid.UUID, req UpdateAlertRuleRequest) (*AlertRuleResponse, error) {
	rule, err := s.alerts.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if err := rule.Update(req.Name, monitoring.Comparison(req.Comparison), req.Threshold, monitoring.AlertLevel(req.Level), req.Enabled); err != nil {
		return nil, err
	}

	if err := s.alerts.SaveRule(ctx, rule); err != nil {
		return nil, err
	}

	return ToAlertRuleResponse(rule), nil
}

// DeleteRule removes an alert rule
func (s *MonitoringService) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if _, err := s.alerts.FindRuleByID(ctx, ruleID); err != nil {
		return err
	}
	return s.alerts.DeleteRule(ctx, ruleID)
}

// ListAlerts returns fired alerts, newest first
func (s *MonitoringService) ListAlerts(ctx context.Context, filter AlertListFilter) ([]AlertResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Resolved != nil {
		f.Filters["resolved"] = *filter.Resolved
	}

	alerts, err := s.alerts.FindAlerts(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.alerts.CountAlerts(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]AlertResponse, len(alerts))
	for i := range alerts {
		responses[i] = *ToAlertResponse(&alerts[i])
	}
	return responses, total, nil
}

// ResolveAlert manually closes an open alert
func (s *MonitoringService) ResolveAlert(ctx context.Context, alertID uuid.UUID) (*AlertResponse, error) {
	alert, err := s.alerts.FindAlertByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if err := alert.Resolve(); err != nil {
		return nil, err
	}

	if err := s.alerts.SaveAlert(ctx, alert); err != nil {
		return nil, err
	}

	return ToAlertResponse(alert), nil
}

// SystemStatus returns the latest collected system sample
func (s *MonitoringService) SystemStatus(ctx context.Context) (*SystemStatusResponse, error) {
	if s.samples == nil {
		return nil, shared.NewDomainError("SAMPLE_UNAVAILABLE", "System monitoring is disabled")
	}
	sample, ok := s.samples.Latest()
	if !ok {
		return nil, shared.NewDomainError("SAMPLE_UNAVAILABLE", "No system sample collected yet")
	}
	return ToSystemStatusResponse(sample), nil
}
