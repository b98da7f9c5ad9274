package contact

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*contact.Contact, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*contact.Contact, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contact.Contact, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status contact.ContactStatus, filter shared.Filter) ([]contact.Contact, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindDeleted(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contact.Contact, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]contact.Contact, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.Contact), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) SaveWithLock(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[contact.ContactStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[contact.ContactStatus]int64), args.Error(1)
}

func (m *MockContactRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

// Verify interface compliance
var _ contact.ContactRepository = (*MockContactRepository)(nil)

func newTestTenantID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func newTestOwnerID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func createTestContact(tenantID uuid.UUID) *contact.Contact {
	c, _ := contact.NewContact(tenantID, newTestOwnerID(), "Ada", "Lovelace", contact.ContactSourceManual)
	c.ClearDomainEvents()
	return c
}

func TestContactService_Create_Success(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	req := CreateContactRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Source:    "referral",
		OwnerID:   newTestOwnerID(),
	}

	mockRepo.On("ExistsByEmail", ctx, tenantID, req.Email).Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	result, err := service.Create(ctx, tenantID, req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "Ada Lovelace", result.FullName)
	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, "referral", result.Source)
	assert.Equal(t, "lead", result.Status)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Create_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	req := CreateContactRequest{
		LastName: "Lovelace",
		Email:    "ada@example.com",
		OwnerID:  newTestOwnerID(),
	}

	mockRepo.On("ExistsByEmail", ctx, tenantID, req.Email).Return(true, nil)

	result, err := service.Create(ctx, tenantID, req)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Create_LowercasesEmail(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	req := CreateContactRequest{
		LastName: "Lovelace",
		Email:    "Ada@Example.COM",
		OwnerID:  newTestOwnerID(),
	}

	mockRepo.On("ExistsByEmail", ctx, tenantID, req.Email).Return(false, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	result, err := service.Create(ctx, tenantID, req)

	assert.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.Email)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Create_PublishesEvents(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	var published []shared.DomainEvent
	service.SetEventPublisher(publisherFunc(func(ctx context.Context, events ...shared.DomainEvent) error {
		published = append(published, events...)
		return nil
	}))

	ctx := context.Background()
	tenantID := newTestTenantID()
	req := CreateContactRequest{LastName: "Lovelace", OwnerID: newTestOwnerID()}

	mockRepo.On("Save", ctx, mock.AnythingOfType("*contact.Contact")).Return(nil)

	_, err := service.Create(ctx, tenantID, req)

	assert.NoError(t, err)
	assert.Len(t, published, 1)
	assert.Equal(t, contact.EventTypeContactCreated, published[0].EventType())
}

func TestContactService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	contactID := uuid.New()

	mockRepo.On("FindByIDForTenant", ctx, tenantID, contactID).Return(nil, shared.ErrNotFound)

	result, err := service.GetByID(ctx, tenantID, contactID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestContactService_List_AppliesDefaults(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)

	mockRepo.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" && f.OrderDir == "desc"
	})).Return([]contact.Contact{*c}, nil)
	mockRepo.On("CountForTenant", ctx, tenantID, mock.AnythingOfType("shared.Filter")).Return(int64(1), nil)

	results, total, err := service.List(ctx, tenantID, ContactListFilter{})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, results, 1)
	assert.Equal(t, "Ada Lovelace", results[0].FullName)
	mockRepo.AssertExpectations(t)
}

func TestContactService_List_ForwardsStatusFilter(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "customer"
	})).Return([]contact.Contact{}, nil)
	mockRepo.On("CountForTenant", ctx, tenantID, mock.AnythingOfType("shared.Filter")).Return(int64(0), nil)

	_, _, err := service.List(ctx, tenantID, ContactListFilter{Status: "customer"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Update_MergesFields(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)
	company := "Analytical Engines Ltd"

	mockRepo.On("FindByIDForTenant", ctx, tenantID, c.ID).Return(c, nil)
	mockRepo.On("SaveWithLock", ctx, c).Return(nil)

	result, err := service.Update(ctx, tenantID, c.ID, UpdateContactRequest{Company: &company})

	assert.NoError(t, err)
	assert.Equal(t, "Analytical Engines Ltd", result.Company)
	// Untouched fields keep their values
	assert.Equal(t, "Ada", result.FirstName)
	assert.Equal(t, "Lovelace", result.LastName)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Update_DuplicateEmailRejected(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)
	email := "taken@example.com"

	mockRepo.On("FindByIDForTenant", ctx, tenantID, c.ID).Return(c, nil)
	mockRepo.On("ExistsByEmail", ctx, tenantID, email).Return(true, nil)

	result, err := service.Update(ctx, tenantID, c.ID, UpdateContactRequest{Email: &email})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	mockRepo.AssertExpectations(t)
}

func TestContactService_ChangeStatus_Success(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)

	mockRepo.On("FindByIDForTenant", ctx, tenantID, c.ID).Return(c, nil)
	mockRepo.On("SaveWithLock", ctx, c).Return(nil)

	result, err := service.ChangeStatus(ctx, tenantID, c.ID, ChangeContactStatusRequest{Status: "prospect"})

	assert.NoError(t, err)
	assert.Equal(t, "prospect", result.Status)
	mockRepo.AssertExpectations(t)
}

func TestContactService_ChangeStatus_SameStatus(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)

	mockRepo.On("FindByIDForTenant", ctx, tenantID, c.ID).Return(c, nil)

	result, err := service.ChangeStatus(ctx, tenantID, c.ID, ChangeContactStatusRequest{Status: "lead"})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SAME_STATUS", domainErr.Code)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Delete_Success(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)
	deletedBy := uuid.New()

	mockRepo.On("FindByIDForTenant", ctx, tenantID, c.ID).Return(c, nil)
	mockRepo.On("Save", ctx, c).Return(nil)

	err := service.Delete(ctx, tenantID, c.ID, deletedBy)

	assert.NoError(t, err)
	assert.True(t, c.IsDeleted())
	assert.Equal(t, deletedBy, *c.DeletedBy)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Restore_WrongTenant(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	c := createTestContact(newTestTenantID())
	_ = c.Delete(uuid.New())

	mockRepo.On("FindByID", ctx, c.ID).Return(c, nil)

	result, err := service.Restore(ctx, uuid.New(), c.ID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestContactService_Restore_Success(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	c := createTestContact(tenantID)
	_ = c.Delete(uuid.New())

	mockRepo.On("FindByID", ctx, c.ID).Return(c, nil)
	mockRepo.On("Save", ctx, c).Return(nil)

	result, err := service.Restore(ctx, tenantID, c.ID)

	assert.NoError(t, err)
	assert.Nil(t, result.DeletedAt)
	mockRepo.AssertExpectations(t)
}

func TestContactService_CountByStatus_StableOrder(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewContactService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("CountByStatus", ctx, tenantID).Return(map[contact.ContactStatus]int64{
		contact.ContactStatusLead:     7,
		contact.ContactStatusCustomer: 3,
	}, nil)

	results, err := service.CountByStatus(ctx, tenantID)

	assert.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, "lead", results[0].Status)
	assert.Equal(t, int64(7), results[0].Count)
	assert.Equal(t, "customer", results[2].Status)
	assert.Equal(t, int64(3), results[2].Count)
	assert.Equal(t, int64(0), results[3].Count)
	mockRepo.AssertExpectations(t)
}

// publisherFunc adapts a function to shared.EventPublisher
type publisherFunc func(ctx context.Context, events ...shared.DomainEvent) error

func (f publisherFunc) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return f(ctx, events...)
}
