package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository is a mock implementation of TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]task.Task, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindRunnable(ctx context.Context, limit int) ([]task.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *MockTaskRepository) Save(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateProgress(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// Verify interface compliance
var _ task.TaskRepository = (*MockTaskRepository)(nil)

// memoryStatusStore keeps snapshots in a map, standing in for Redis
type memoryStatusStore struct {
	snapshots map[uuid.UUID]*task.StatusSnapshot
}

func newMemoryStatusStore() *memoryStatusStore {
	return &memoryStatusStore{snapshots: make(map[uuid.UUID]*task.StatusSnapshot)}
}

func (s *memoryStatusStore) Put(ctx context.Context, t *task.Task) error {
	s.snapshots[t.ID] = task.SnapshotOf(t)
	return nil
}

func (s *memoryStatusStore) Get(ctx context.Context, taskID uuid.UUID) (*task.StatusSnapshot, error) {
	return s.snapshots[taskID], nil
}

func (s *memoryStatusStore) Delete(ctx context.Context, taskID uuid.UUID) error {
	delete(s.snapshots, taskID)
	return nil
}

var _ task.StatusStore = (*memoryStatusStore)(nil)

func newTestTenantID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func TestTaskService_EnqueueEmail_Success(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	store := newMemoryStatusStore()
	service := NewTaskService(mockRepo, store)

	ctx := context.Background()
	tenantID := newTestTenantID()
	createdBy := uuid.New()

	mockRepo.On("Save", ctx, mock.MatchedBy(func(tk *task.Task) bool {
		var payload worker.EmailPayload
		if err := json.Unmarshal([]byte(tk.Payload), &payload); err != nil {
			return false
		}
		return tk.Type == task.TaskTypeEmail &&
			tk.Status == task.TaskStatusPending &&
			tk.MaxRetries == 3 &&
			payload.Kind == "welcome" &&
			payload.To == "ada@example.com"
	})).Return(nil)

	result, err := service.EnqueueEmail(ctx, tenantID, EnqueueEmailRequest{
		Kind:      "welcome",
		To:        "ada@example.com",
		Name:      "Ada",
		CreatedBy: &createdBy,
	})

	assert.NoError(t, err)
	assert.Equal(t, "email", result.Type)
	assert.Equal(t, "pending", result.Status)
	// Enqueue primes the status cache
	snapshot, _ := store.Get(ctx, result.ID)
	require.NotNil(t, snapshot)
	assert.Equal(t, task.TaskStatusPending, snapshot.Status)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_EnqueueReport_InvalidPeriod(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	service := NewTaskService(mockRepo, newMemoryStatusStore())

	now := time.Now()
	_, err := service.EnqueueReport(context.Background(), newTestTenantID(), EnqueueReportRequest{
		Kind:        "pipeline",
		PeriodStart: now,
		PeriodEnd:   now.Add(-24 * time.Hour),
	})

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PERIOD", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTaskService_GetStatus_CacheHitSkipsDatabase(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	store := newMemoryStatusStore()
	service := NewTaskService(mockRepo, store)

	ctx := context.Background()
	tenantID := newTestTenantID()

	tk, err := task.NewTask(tenantID, nil, task.TaskTypeExport, `{"resource":"contacts"}`, 3)
	require.NoError(t, err)
	require.NoError(t, tk.Start())
	require.NoError(t, tk.SetProgress(40))
	require.NoError(t, store.Put(ctx, tk))

	status, err := service.GetStatus(ctx, tenantID, tk.ID)

	assert.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 40, status.Progress)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_GetStatus_RejectsOtherTenantsCache(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	store := newMemoryStatusStore()
	service := NewTaskService(mockRepo, store)

	ctx := context.Background()
	ownerTenant := newTestTenantID()
	otherTenant := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	tk, err := task.NewTask(ownerTenant, nil, task.TaskTypeExport, `{"resource":"contacts"}`, 3)
	require.NoError(t, err)
	require.NoError(t, tk.Start())
	tk.Succeed(`{"key":"exports/contacts.csv","url":"https://storage.example.com/download/exports/contacts.csv","rows":10}`)
	require.NoError(t, store.Put(ctx, tk))

	// The cached snapshot belongs to another tenant, so the poll must go to
	// the tenant-scoped row lookup instead of serving the cached result.
	mockRepo.On("FindByID", ctx, otherTenant, tk.ID).Return(nil, shared.ErrNotFound)

	status, err := service.GetStatus(ctx, otherTenant, tk.ID)

	assert.Nil(t, status)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mockRepo.AssertExpectations(t)

	// The owning tenant still gets the cache hit.
	owned, err := service.GetStatus(ctx, ownerTenant, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", owned.Status)
	assert.NotEmpty(t, owned.Result)
}

func TestTaskService_GetStatus_FallsBackToDatabase(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	service := NewTaskService(mockRepo, newMemoryStatusStore())

	ctx := context.Background()
	tenantID := newTestTenantID()

	tk, err := task.NewTask(tenantID, nil, task.TaskTypeExport, `{"resource":"deals"}`, 3)
	require.NoError(t, err)
	tk.Succeed(`{"key":"exports/deals.csv","rows":10}`)

	mockRepo.On("FindByID", ctx, tenantID, tk.ID).Return(tk, nil)

	status, err := service.GetStatus(ctx, tenantID, tk.ID)

	assert.NoError(t, err)
	assert.Equal(t, "succeeded", status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.NotEmpty(t, status.Result)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_Cancel_PendingOnly(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	store := newMemoryStatusStore()
	service := NewTaskService(mockRepo, store)

	ctx := context.Background()
	tenantID := newTestTenantID()

	tk, err := task.NewTask(tenantID, nil, task.TaskTypeEmail, "{}", 3)
	require.NoError(t, err)

	mockRepo.On("FindByID", ctx, tenantID, tk.ID).Return(tk, nil)
	mockRepo.On("Save", ctx, tk).Return(nil)

	result, err := service.Cancel(ctx, tenantID, tk.ID)

	assert.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	snapshot, _ := store.Get(ctx, tk.ID)
	require.NotNil(t, snapshot)
	assert.Equal(t, task.TaskStatusCancelled, snapshot.Status)
}

func TestTaskService_Cancel_RunningRejected(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	service := NewTaskService(mockRepo, newMemoryStatusStore())

	ctx := context.Background()
	tenantID := newTestTenantID()

	tk, err := task.NewTask(tenantID, nil, task.TaskTypeEmail, "{}", 3)
	require.NoError(t, err)
	require.NoError(t, tk.Start())

	mockRepo.On("FindByID", ctx, tenantID, tk.ID).Return(tk, nil)

	_, err = service.Cancel(ctx, tenantID, tk.ID)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTaskService_List_ForwardsTypeAndStatus(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	service := NewTaskService(mockRepo, newMemoryStatusStore())

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["type"] == "export" && f.Filters["status"] == "failed"
	})).Return([]task.Task{}, nil)
	mockRepo.On("CountForTenant", ctx, tenantID, mock.Anything).Return(int64(0), nil)

	_, _, err := service.List(ctx, tenantID, TaskListFilter{Type: "export", Status: "failed"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
