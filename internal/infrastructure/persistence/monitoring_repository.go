package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/monitoring"
	"github.com/crm/backend/internal/domain/shared"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// SaveRule creates or updates an alert rule
func (r *GormAlertRepository) SaveRule(ctx context.Context, rule *monitoring.AlertRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// FindRuleByID finds a rule by ID
func (r *GormAlertRepository) FindRuleByID(ctx context.Context, id uuid.UUID) (*monitoring.AlertRule, error) {
	var rule monitoring.AlertRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindRules lists all rules
func (r *GormAlertRepository) FindRules(ctx context.Context) ([]monitoring.AlertRule, error) {
	var rules []monitoring.AlertRule
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// DeleteRule removes a rule
func (r *GormAlertRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&monitoring.AlertRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SaveAlert creates or updates an alert
func (r *GormAlertRepository) SaveAlert(ctx context.Context, alert *monitoring.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// FindAlertByID finds an alert by ID
func (r *GormAlertRepository) FindAlertByID(ctx context.Context, id uuid.UUID) (*monitoring.Alert, error) {
	var alert monitoring.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpenAlertForRule returns the unresolved alert for a rule, nil when none
func (r *GormAlertRepository) FindOpenAlertForRule(ctx context.Context, ruleID uuid.UUID) (*monitoring.Alert, error) {
	var alert monitoring.Alert
	if err := r.db.WithContext(ctx).
		Where("rule_id = ? AND resolved = ?", ruleID, false).
		Order("created_at DESC").
		First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// FindAlerts lists alerts, newest first
func (r *GormAlertRepository) FindAlerts(ctx context.Context, filter shared.Filter) ([]monitoring.Alert, error) {
	var alerts []monitoring.Alert
	query := r.db.WithContext(ctx).Model(&monitoring.Alert{})
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, AlertSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// CountAlerts counts alerts matching the filter
func (r *GormAlertRepository) CountAlerts(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&monitoring.Alert{})
	query = r.applyConditions(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyConditions applies filter conditions without pagination or ordering
func (r *GormAlertRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if resolved, ok := filter.Filters["resolved"]; ok {
		query = query.Where("resolved = ?", resolved)
	}
	if level, ok := filter.Filters["level"]; ok {
		query = query.Where("level = ?", level)
	}
	return query
}

// Ensure GormAlertRepository implements AlertRepository
var _ monitoring.AlertRepository = (*GormAlertRepository)(nil)
