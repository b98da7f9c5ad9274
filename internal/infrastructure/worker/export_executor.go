package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
)

// Exportable resources
const (
	ExportResourceContacts = "contacts"
	ExportResourceDeals    = "deals"
)

// exportPageSize rows are fetched per page while streaming
const exportPageSize = 500

// ExportPayload is the payload of an export task
type ExportPayload struct {
	Resource string `json:"resource"`
}

// ExportResult is the result blob of an export task
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportStorage stores export artifacts and hands out download links
type ExportStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// ExportExecutor streams contacts or deals into a CSV artifact
type ExportExecutor struct {
	contacts contact.ContactRepository
	deals    deal.DealRepository
	storage  ExportStorage
}

// NewExportExecutor creates an ExportExecutor
func NewExportExecutor(contacts contact.ContactRepository, deals deal.DealRepository, storage ExportStorage) *ExportExecutor {
	return &ExportExecutor{
		contacts: contacts,
		deals:    deals,
		storage:  storage,
	}
}

// Type returns the task type this executor handles
func (e *ExportExecutor) Type() task.TaskType {
	return task.TaskTypeExport
}

// Execute builds the CSV, uploads it and stores a presigned link in the result
func (e *ExportExecutor) Execute(ctx context.Context, t *task.Task, progress ProgressFunc) (string, error) {
	var payload ExportPayload
	if err := json.Unmarshal([]byte(t.Payload), &payload); err != nil {
		return "", fmt.Errorf("invalid export payload: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	var rows int
	var err error
	switch payload.Resource {
	case ExportResourceContacts:
		rows, err = e.writeContacts(ctx, t, writer, progress)
	case ExportResourceDeals:
		rows, err = e.writeDeals(ctx, t, writer, progress)
	default:
		return "", fmt.Errorf("unknown export resource %q", payload.Resource)
	}
	if err != nil {
		return "", err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s-%s.csv", t.TenantID, payload.Resource, t.ID)
	if err := e.storage.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	progress(95)

	url, expiresAt, err := e.storage.DownloadURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to presign export: %w", err)
	}

	result, err := json.Marshal(ExportResult{
		Key:       key,
		URL:       url,
		Rows:      rows,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal export result: %w", err)
	}
	return string(result), nil
}

func (e *ExportExecutor) writeContacts(ctx context.Context, t *task.Task, w *csv.Writer, progress ProgressFunc) (int, error) {
	if err := w.Write([]string{"id", "first_name", "last_name", "company", "email", "phone", "status", "source", "city", "country", "created_at"}); err != nil {
		return 0, err
	}

	total, err := e.contacts.CountForTenant(ctx, t.TenantID, shared.Filter{})
	if err != nil {
		return 0, err
	}

	var written int
	for page := 1; ; page++ {
		batch, err := e.contacts.FindAllForTenant(ctx, t.TenantID, shared.Filter{
			Page:     page,
			PageSize: exportPageSize,
			OrderBy:  "created_at",
			OrderDir: "asc",
		})
		if err != nil {
			return written, err
		}
		if len(batch) == 0 {
			break
		}

		for i := range batch {
			c := &batch[i]
			if err := w.Write([]string{
				c.ID.String(),
				c.FirstName,
				c.LastName,
				c.Company,
				c.Email,
				c.Phone,
				string(c.Status),
				string(c.Source),
				c.City,
				c.Country,
				c.CreatedAt.Format(time.RFC3339),
			}); err != nil {
				return written, err
			}
			written++
		}

		progress(exportProgress(written, total))
		if len(batch) < exportPageSize {
			break
		}
	}
	return written, nil
}

func (e *ExportExecutor) writeDeals(ctx context.Context, t *task.Task, w *csv.Writer, progress ProgressFunc) (int, error) {
	if err := w.Write([]string{"id", "title", "contact_id", "amount", "currency", "stage", "probability", "expected_close_date", "actual_close_date", "created_at"}); err != nil {
		return 0, err
	}

	total, err := e.deals.CountForTenant(ctx, t.TenantID, shared.Filter{})
	if err != nil {
		return 0, err
	}

	var written int
	for page := 1; ; page++ {
		batch, err := e.deals.FindAllForTenant(ctx, t.TenantID, shared.Filter{
			Page:     page,
			PageSize: exportPageSize,
			OrderBy:  "created_at",
			OrderDir: "asc",
		})
		if err != nil {
			return written, err
		}
		if len(batch) == 0 {
			break
		}

		for i := range batch {
			d := &batch[i]
			if err := w.Write([]string{
				d.ID.String(),
				d.Title,
				d.ContactID.String(),
				d.Amount.String(),
				d.Currency,
				string(d.Stage),
				fmt.Sprintf("%d", d.Probability),
				formatDate(d.ExpectedCloseDate),
				formatDate(d.ActualCloseDate),
				d.CreatedAt.Format(time.RFC3339),
			}); err != nil {
				return written, err
			}
			written++
		}

		progress(exportProgress(written, total))
		if len(batch) < exportPageSize {
			break
		}
	}
	return written, nil
}

// exportProgress keeps row progress under the upload step's share
func exportProgress(written int, total int64) int {
	if total <= 0 {
		return 90
	}
	p := int(int64(written) * 90 / total)
	if p > 90 {
		p = 90
	}
	return p
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Ensure ExportExecutor implements Executor
var _ Executor = (*ExportExecutor)(nil)
