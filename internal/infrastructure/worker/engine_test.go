package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
)

// fakeTaskRepo is an in-memory TaskRepository for engine tests
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*task.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*task.Task)}
}

func (r *fakeTaskRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTaskRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []task.Task
	for _, t := range r.tasks {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) FindRunnable(_ context.Context, limit int) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []task.Task
	for _, t := range r.tasks {
		if len(out) >= limit {
			break
		}
		if t.Status == task.TaskStatusPending ||
			(t.Status == task.TaskStatusRetrying && !t.ScheduledAt.After(now)) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Save(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) UpdateProgress(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.tasks[t.ID]; ok {
		stored.Status = t.Status
		stored.Progress = t.Progress
		stored.Error = t.Error
	}
	return nil
}

func (r *fakeTaskRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.tasks {
		if t.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTaskRepo) get(id uuid.UUID) *task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		copied := *t
		return &copied
	}
	return nil
}

// stubExecutor returns canned results or errors per call
type stubExecutor struct {
	taskType task.TaskType
	mu       sync.Mutex
	failures int
	calls    int
}

func (e *stubExecutor) Type() task.TaskType { return e.taskType }

func (e *stubExecutor) Execute(_ context.Context, _ *task.Task, progress ProgressFunc) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls <= e.failures {
		return "", errors.New("boom")
	}
	progress(50)
	return `{"ok":true}`, nil
}

func (e *stubExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Enabled:        true,
		Concurrency:    2,
		PollInterval:   10 * time.Millisecond,
		TaskTimeout:    time.Second,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
		StatusTTL:      time.Hour,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestEngine_RunsPendingTask(t *testing.T) {
	repo := newFakeTaskRepo()
	status := cache.NewInMemoryTaskStatusStore()
	executor := &stubExecutor{taskType: task.TaskTypeExport}
	engine := NewEngine(testWorkerConfig(), repo, status, zap.NewNop(), executor)

	tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeExport, "{}", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tk))

	require.NoError(t, engine.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		stored := repo.get(tk.ID)
		return stored != nil && stored.Status == task.TaskStatusSucceeded
	})

	stored := repo.get(tk.ID)
	assert.Equal(t, `{"ok":true}`, stored.Result)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, 1, stored.Attempts)

	snapshot, err := status.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, task.TaskStatusSucceeded, snapshot.Status)
}

func TestEngine_RetriesFailedTask(t *testing.T) {
	repo := newFakeTaskRepo()
	status := cache.NewInMemoryTaskStatusStore()
	executor := &stubExecutor{taskType: task.TaskTypeEmail, failures: 2}
	engine := NewEngine(testWorkerConfig(), repo, status, zap.NewNop(), executor)

	tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeEmail, "{}", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tk))

	require.NoError(t, engine.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		stored := repo.get(tk.ID)
		return stored != nil && stored.Status == task.TaskStatusSucceeded
	})

	stored := repo.get(tk.ID)
	assert.Equal(t, 3, stored.Attempts)
	assert.GreaterOrEqual(t, executor.callCount(), 3)
}

func TestEngine_FailsPermanentlyWhenRetriesExhausted(t *testing.T) {
	repo := newFakeTaskRepo()
	status := cache.NewInMemoryTaskStatusStore()
	executor := &stubExecutor{taskType: task.TaskTypeReport, failures: 100}
	engine := NewEngine(testWorkerConfig(), repo, status, zap.NewNop(), executor)

	tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeReport, "{}", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tk))

	require.NoError(t, engine.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		stored := repo.get(tk.ID)
		return stored != nil && stored.Status == task.TaskStatusFailed
	})

	stored := repo.get(tk.ID)
	assert.Equal(t, "boom", stored.Error)
	assert.Equal(t, 2, stored.Attempts)
	assert.NotNil(t, stored.FinishedAt)
}

func TestEngine_FailsTaskWithoutExecutor(t *testing.T) {
	repo := newFakeTaskRepo()
	status := cache.NewInMemoryTaskStatusStore()
	engine := NewEngine(testWorkerConfig(), repo, status, zap.NewNop())

	tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeEmail, "{}", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tk))

	require.NoError(t, engine.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		stored := repo.get(tk.ID)
		return stored != nil && stored.Status == task.TaskStatusFailed
	})
}
