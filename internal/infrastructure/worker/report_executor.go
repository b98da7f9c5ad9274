package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/report"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
)

// ReportPayload is the payload of a report task
type ReportPayload struct {
	Kind        report.SnapshotKind `json:"kind"`
	PeriodStart time.Time           `json:"period_start"`
	PeriodEnd   time.Time           `json:"period_end"`
}

// ReportResult is the result blob of a report task
type ReportResult struct {
	SnapshotID string              `json:"snapshot_id"`
	Kind       report.SnapshotKind `json:"kind"`
}

// ReportExecutor aggregates pipeline and activity read models into the
// report snapshot table
type ReportExecutor struct {
	deals      deal.DealRepository
	activities activity.ActivityRepository
	snapshots  report.SnapshotRepository
}

// NewReportExecutor creates a ReportExecutor
func NewReportExecutor(deals deal.DealRepository, activities activity.ActivityRepository, snapshots report.SnapshotRepository) *ReportExecutor {
	return &ReportExecutor{
		deals:      deals,
		activities: activities,
		snapshots:  snapshots,
	}
}

// Type returns the task type this executor handles
func (e *ReportExecutor) Type() task.TaskType {
	return task.TaskTypeReport
}

// Execute computes the report and upserts the snapshot for the period
func (e *ReportExecutor) Execute(ctx context.Context, t *task.Task, progress ProgressFunc) (string, error) {
	var payload ReportPayload
	if err := json.Unmarshal([]byte(t.Payload), &payload); err != nil {
		return "", fmt.Errorf("invalid report payload: %w", err)
	}
	if !payload.Kind.IsValid() {
		return "", fmt.Errorf("unknown report kind %q", payload.Kind)
	}

	var body interface{}
	var err error
	switch payload.Kind {
	case report.SnapshotKindPipeline:
		body, err = e.buildPipeline(ctx, t, payload)
	default:
		body, err = e.buildActivity(ctx, t, payload)
	}
	if err != nil {
		return "", err
	}
	progress(70)

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	snapshot, err := report.NewSnapshot(t.TenantID, payload.Kind, payload.PeriodStart, payload.PeriodEnd, string(data))
	if err != nil {
		return "", err
	}
	if err := e.snapshots.Save(ctx, snapshot); err != nil {
		return "", fmt.Errorf("failed to save report snapshot: %w", err)
	}

	result, err := json.Marshal(ReportResult{
		SnapshotID: snapshot.ID.String(),
		Kind:       payload.Kind,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal report result: %w", err)
	}
	return string(result), nil
}

func (e *ReportExecutor) buildPipeline(ctx context.Context, t *task.Task, p ReportPayload) (*report.PipelineSummary, error) {
	summary := &report.PipelineSummary{
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		OpenValue:   decimal.Zero,
		WonValue:    decimal.Zero,
		LostValue:   decimal.Zero,
	}

	stages, err := e.deals.PipelineSummary(ctx, t.TenantID)
	if err != nil {
		return nil, err
	}
	for _, s := range stages {
		if !s.Stage.IsClosed() {
			summary.OpenDeals += s.Count
			summary.OpenValue = summary.OpenValue.Add(s.Value)
		}
	}

	closed, err := e.deals.FindClosedBetween(ctx, t.TenantID, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		return nil, err
	}
	for i := range closed {
		d := &closed[i]
		if d.Stage == deal.StageClosedWon {
			summary.WonDeals++
			summary.WonValue = summary.WonValue.Add(d.Amount)
		} else {
			summary.LostDeals++
			summary.LostValue = summary.LostValue.Add(d.Amount)
		}
	}

	rate, err := e.deals.WinRate(ctx, t.TenantID)
	if err != nil {
		return nil, err
	}
	summary.WinRate = rate

	return summary, nil
}

func (e *ReportExecutor) buildActivity(ctx context.Context, t *task.Task, p ReportPayload) (*report.ActivitySummary, error) {
	created, err := e.activities.CountForTenant(ctx, t.TenantID, shared.Filter{
		Filters: map[string]interface{}{
			"created_from": p.PeriodStart,
			"created_to":   p.PeriodEnd,
		},
	})
	if err != nil {
		return nil, err
	}

	completed, err := e.activities.CountForTenant(ctx, t.TenantID, shared.Filter{
		Filters: map[string]interface{}{
			"status":         activity.ActivityStatusCompleted,
			"completed_from": p.PeriodStart,
			"completed_to":   p.PeriodEnd,
		},
	})
	if err != nil {
		return nil, err
	}

	overdue, err := e.activities.CountForTenant(ctx, t.TenantID, shared.Filter{
		Filters: map[string]interface{}{
			"overdue_before": p.PeriodEnd,
		},
	})
	if err != nil {
		return nil, err
	}

	return &report.ActivitySummary{
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Created:     created,
		Completed:   completed,
		Overdue:     overdue,
	}, nil
}

// Ensure ReportExecutor implements Executor
var _ Executor = (*ReportExecutor)(nil)
