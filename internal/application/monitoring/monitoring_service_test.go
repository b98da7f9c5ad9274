package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/domain/monitoring"
	"github.com/crm/backend/internal/domain/shared"
)

// MockAlertRepository is a mock implementation of monitoring.AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) SaveRule(ctx context.Context, rule *monitoring.AlertRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockAlertRepository) FindRuleByID(ctx context.Context, id uuid.UUID) (*monitoring.AlertRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.AlertRule), args.Error(1)
}

func (m *MockAlertRepository) FindRules(ctx context.Context) ([]monitoring.AlertRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]monitoring.AlertRule), args.Error(1)
}

func (m *MockAlertRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) SaveAlert(ctx context.Context, alert *monitoring.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) FindAlertByID(ctx context.Context, id uuid.UUID) (*monitoring.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindOpenAlertForRule(ctx context.Context, ruleID uuid.UUID) (*monitoring.Alert, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindAlerts(ctx context.Context, filter shared.Filter) ([]monitoring.Alert, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]monitoring.Alert), args.Error(1)
}

func (m *MockAlertRepository) CountAlerts(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

var _ monitoring.AlertRepository = (*MockAlertRepository)(nil)

// staticSampleSource returns a fixed sample
type staticSampleSource struct {
	sample monitoring.Sample
	ok     bool
}

func (s staticSampleSource) Latest() (monitoring.Sample, bool) {
	return s.sample, s.ok
}

func TestMonitoringService_CreateRule_Success(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	mockRepo.On("SaveRule", mock.Anything, mock.MatchedBy(func(r *monitoring.AlertRule) bool {
		return r.Metric == monitoring.MetricCPUPercent && r.Threshold == 90 && r.Enabled
	})).Return(nil)

	result, err := service.CreateRule(context.Background(), CreateAlertRuleRequest{
		Name:       "High CPU",
		Metric:     "cpu_percent",
		Comparison: "above",
		Threshold:  90,
		Level:      "critical",
	})

	require.NoError(t, err)
	assert.Equal(t, "High CPU", result.Name)
	assert.Equal(t, "critical", result.Level)
	assert.True(t, result.Enabled)
	mockRepo.AssertExpectations(t)
}

func TestMonitoringService_CreateRule_UnknownMetric(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	_, err := service.CreateRule(context.Background(), CreateAlertRuleRequest{
		Name:       "Bogus",
		Metric:     "load_average",
		Comparison: "above",
		Threshold:  1,
		Level:      "warning",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_METRIC", domainErr.Code)
	mockRepo.AssertNotCalled(t, "SaveRule", mock.Anything, mock.Anything)
}

func TestMonitoringService_UpdateRule_Success(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	rule, err := monitoring.NewAlertRule("High CPU", monitoring.MetricCPUPercent, monitoring.ComparisonAbove, 90, monitoring.AlertLevelWarning)
	require.NoError(t, err)

	mockRepo.On("FindRuleByID", mock.Anything, rule.ID).Return(rule, nil)
	mockRepo.On("SaveRule", mock.Anything, rule).Return(nil)

	result, err := service.UpdateRule(context.Background(), rule.ID, UpdateAlertRuleRequest{
		Name:       "High CPU",
		Comparison: "above",
		Threshold:  95,
		Level:      "critical",
		Enabled:    false,
	})

	require.NoError(t, err)
	assert.Equal(t, float64(95), result.Threshold)
	assert.Equal(t, "critical", result.Level)
	assert.False(t, result.Enabled)
}

func TestMonitoringService_ListAlerts_ForwardsResolvedFilter(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	rule, err := monitoring.NewAlertRule("High CPU", monitoring.MetricCPUPercent, monitoring.ComparisonAbove, 90, monitoring.AlertLevelWarning)
	require.NoError(t, err)
	alert := monitoring.NewAlert(rule, "cpu_percent above 90", 97.5)

	resolved := false
	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		v, ok := f.Filters["resolved"]
		return ok && v == false && f.Page == 1
	})
	mockRepo.On("FindAlerts", mock.Anything, matchFilter).Return([]monitoring.Alert{*alert}, nil)
	mockRepo.On("CountAlerts", mock.Anything, matchFilter).Return(int64(1), nil)

	results, total, err := service.ListAlerts(context.Background(), AlertListFilter{Resolved: &resolved})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, 97.5, results[0].Value)
	assert.False(t, results[0].Resolved)
}

func TestMonitoringService_ResolveAlert_Success(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	rule, err := monitoring.NewAlertRule("High CPU", monitoring.MetricCPUPercent, monitoring.ComparisonAbove, 90, monitoring.AlertLevelWarning)
	require.NoError(t, err)
	alert := monitoring.NewAlert(rule, "cpu_percent above 90", 97.5)

	mockRepo.On("FindAlertByID", mock.Anything, alert.ID).Return(alert, nil)
	mockRepo.On("SaveAlert", mock.Anything, alert).Return(nil)

	result, err := service.ResolveAlert(context.Background(), alert.ID)

	require.NoError(t, err)
	assert.True(t, result.Resolved)
	assert.NotNil(t, result.ResolvedAt)
}

func TestMonitoringService_ResolveAlert_AlreadyResolved(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	service := NewMonitoringService(mockRepo, staticSampleSource{})

	rule, err := monitoring.NewAlertRule("High CPU", monitoring.MetricCPUPercent, monitoring.ComparisonAbove, 90, monitoring.AlertLevelWarning)
	require.NoError(t, err)
	alert := monitoring.NewAlert(rule, "cpu_percent above 90", 97.5)
	require.NoError(t, alert.Resolve())

	mockRepo.On("FindAlertByID", mock.Anything, alert.ID).Return(alert, nil)

	_, err = service.ResolveAlert(context.Background(), alert.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_RESOLVED", domainErr.Code)
	mockRepo.AssertNotCalled(t, "SaveAlert", mock.Anything, mock.Anything)
}

func TestMonitoringService_SystemStatus(t *testing.T) {
	t.Run("returns latest sample", func(t *testing.T) {
		sample := monitoring.Sample{
			CPUPercent:    12.5,
			MemoryPercent: 48.2,
			Goroutines:    120,
			CollectedAt:   time.Now(),
		}
		service := NewMonitoringService(new(MockAlertRepository), staticSampleSource{sample: sample, ok: true})

		result, err := service.SystemStatus(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 12.5, result.CPUPercent)
		assert.Equal(t, 120, result.Goroutines)
	})

	t.Run("errors before first collection", func(t *testing.T) {
		service := NewMonitoringService(new(MockAlertRepository), staticSampleSource{})

		_, err := service.SystemStatus(context.Background())

		require.Error(t, err)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SAMPLE_UNAVAILABLE", domainErr.Code)
	})
}
