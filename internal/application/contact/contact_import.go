package contact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

const maxImportFileSize = 10 * 1024 * 1024

// ImportContactsResponse summarizes a CSV import run
type ImportContactsResponse struct {
	SessionID uuid.UUID            `json:"session_id"`
	FileName  string               `json:"file_name"`
	TotalRows int                  `json:"total_rows"`
	Imported  int                  `json:"imported"`
	Skipped   int                  `json:"skipped"`
	Errors    []csvimport.RowError `json:"errors,omitempty"`
	Preview   []map[string]any     `json:"preview,omitempty"`
}

// SetImportSessionStore enables import session tracking
func (s *ContactService) SetImportSessionStore(store csvimport.SessionStore) {
	s.importSessions = store
}

// contactImportRules defines the accepted CSV columns. Only last_name is
// mandatory; email must be unique within the file and the tenant.
func contactImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("first_name").String().MaxLength(100).Build(),
		csvimport.Field("last_name").Required().String().MinLength(1).MaxLength(100).Build(),
		csvimport.Field("company").String().MaxLength(200).Build(),
		csvimport.Field("job_title").String().MaxLength(100).Build(),
		csvimport.Field("email").Email().MaxLength(200).Unique().Build(),
		csvimport.Field("phone").String().MaxLength(50).Build(),
		csvimport.Field("address").String().MaxLength(500).Build(),
		csvimport.Field("city").String().MaxLength(100).Build(),
		csvimport.Field("country").String().MaxLength(100).Build(),
		csvimport.Field("postal_code").String().MaxLength(20).Build(),
		csvimport.Field("source").String().MaxLength(20).Build(),
		csvimport.Field("tags").String().Build(),
		csvimport.Field("notes").String().Build(),
	}
}

// ImportCSV validates and imports contacts from an uploaded CSV file.
// Rows that fail validation are skipped and reported; valid rows become
// contacts with source "import" owned by the caller.
func (s *ContactService) ImportCSV(ctx context.Context, tenantID, ownerID uuid.UUID, fileName string, data []byte) (*ImportContactsResponse, error) {
	if len(data) == 0 {
		return nil, shared.NewDomainError("INVALID_CSV", "Import file is empty")
	}
	if int64(len(data)) > maxImportFileSize {
		return nil, shared.NewDomainError("INVALID_CSV", "Import file exceeds the 10MB limit")
	}

	header, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if err := header.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if missing := header.ValidateHeaders([]string{"last_name"}); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_CSV",
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
	}

	session := csvimport.NewImportSession(tenantID, ownerID, csvimport.EntityContacts, fileName, int64(len(data)))

	processor := csvimport.NewImportProcessor(
		csvimport.WithMaxFileSize(maxImportFileSize),
		csvimport.WithUniqueLookup(func(entityType, field, value string) (bool, error) {
			if field != "email" {
				return false, nil
			}
			return s.contactRepo.ExistsByEmail(ctx, tenantID, value)
		}),
	)

	result, err := processor.Validate(ctx, session, bytes.NewReader(data), contactImportRules())
	if err != nil {
		s.saveImportSession(session)
		return nil, err
	}

	errored := make(map[int]bool, len(result.Errors))
	for _, e := range result.Errors {
		if e.Row > 0 {
			errored[e.Row] = true
		}
	}

	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}

	session.UpdateState(csvimport.StateImporting)

	imported := 0
	rowErrors := result.Errors
	for {
		row, readErr := parser.ReadRow()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			continue
		}
		if row.IsEmpty() || errored[row.LineNumber] {
			continue
		}

		if _, err := s.Create(ctx, tenantID, requestFromRow(row, ownerID)); err != nil {
			rowErrors = append(rowErrors, csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
			continue
		}
		imported++
	}

	session.UpdateState(csvimport.StateCompleted)
	session.ValidRows = imported
	session.ErrorRows = session.TotalRows - imported
	session.Errors = rowErrors
	s.saveImportSession(session)

	return &ImportContactsResponse{
		SessionID: session.ID,
		FileName:  fileName,
		TotalRows: result.TotalRows,
		Imported:  imported,
		Skipped:   result.TotalRows - imported,
		Errors:    rowErrors,
		Preview:   result.Preview,
	}, nil
}

// ListImports returns recent import sessions for the tenant
func (s *ContactService) ListImports(ctx context.Context, tenantID uuid.UUID, limit int) ([]*csvimport.ImportSession, error) {
	if s.importSessions == nil {
		return []*csvimport.ImportSession{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.importSessions.GetByTenant(tenantID, limit)
}

func (s *ContactService) saveImportSession(session *csvimport.ImportSession) {
	if s.importSessions == nil {
		return
	}
	_ = s.importSessions.Save(session)
}

func requestFromRow(row *csvimport.Row, ownerID uuid.UUID) CreateContactRequest {
	source := row.Get("source")
	if source == "" {
		source = string(contact.ContactSourceImport)
	}

	var tags []string
	for _, tag := range strings.Split(row.Get("tags"), ";") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return CreateContactRequest{
		FirstName:  row.Get("first_name"),
		LastName:   row.Get("last_name"),
		Company:    row.Get("company"),
		JobTitle:   row.Get("job_title"),
		Email:      row.Get("email"),
		Phone:      row.Get("phone"),
		Address:    row.Get("address"),
		City:       row.Get("city"),
		Country:    row.Get("country"),
		PostalCode: row.Get("postal_code"),
		Source:     source,
		Tags:       tags,
		Notes:      row.Get("notes"),
		OwnerID:    ownerID,
	}
}
