package contact

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestContactService_ImportCSV_Success(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	ownerID := newTestOwnerID()

	var saved []*contact.Contact
	mockRepo.On("ExistsByEmail", ctx, tenantID, mock.Anything).Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*contact.Contact))
		}).
		Return(nil)

	csv := "first_name,last_name,email,tags\n" +
		"Ada,Lovelace,ada@example.com,vip;analytics\n" +
		"Grace,Hopper,grace@example.com,\n"

	result, err := service.ImportCSV(ctx, tenantID, ownerID, "contacts.csv", []byte(csv))

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, saved, 2)
	assert.Equal(t, contact.ContactSourceImport, saved[0].Source)
	assert.Equal(t, &ownerID, saved[0].OwnerID)
	assert.Equal(t, []string{"vip", "analytics"}, saved[0].GetTags())
}

func TestContactService_ImportCSV_SkipsInvalidRows(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("ExistsByEmail", ctx, tenantID, mock.Anything).Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	csv := "last_name,email\n" +
		"Lovelace,ada@example.com\n" +
		",missing-name@example.com\n" +
		"Hopper,not-an-email\n"

	result, err := service.ImportCSV(ctx, tenantID, newTestOwnerID(), "contacts.csv", []byte(csv))

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 2)
	mockRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestContactService_ImportCSV_ExistingEmailSkipped(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("ExistsByEmail", ctx, tenantID, "ada@example.com").Return(true, nil)
	mockRepo.On("ExistsByEmail", ctx, tenantID, "grace@example.com").Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	csv := "last_name,email\nLovelace,ada@example.com\nHopper,grace@example.com\n"

	result, err := service.ImportCSV(ctx, tenantID, newTestOwnerID(), "contacts.csv", []byte(csv))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	mockRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestContactService_ImportCSV_MissingRequiredColumn(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	csv := "first_name,email\nAda,ada@example.com\n"

	result, err := service.ImportCSV(context.Background(), newTestTenantID(), newTestOwnerID(), "contacts.csv", []byte(csv))

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CSV", domainErr.Code)
}

func TestContactService_ImportCSV_EmptyFile(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	result, err := service.ImportCSV(context.Background(), newTestTenantID(), newTestOwnerID(), "contacts.csv", nil)

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CSV", domainErr.Code)
}

func TestContactService_ImportCSV_RecordsSession(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	store := csvimport.NewInMemorySessionStore(time.Hour)
	defer store.Stop()
	service.SetImportSessionStore(store)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("ExistsByEmail", ctx, tenantID, mock.Anything).Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	csv := "last_name,email\nLovelace,ada@example.com\n"

	result, err := service.ImportCSV(ctx, tenantID, newTestOwnerID(), "contacts.csv", []byte(csv))
	require.NoError(t, err)

	sessions, err := service.ListImports(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, result.SessionID, sessions[0].ID)
	assert.Equal(t, csvimport.StateCompleted, sessions[0].State)
	assert.Equal(t, 1, sessions[0].ValidRows)
}
