package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T, maxRetries int) *Task {
	t.Helper()
	tk, err := NewTask(uuid.New(), nil, TaskTypeExport, `{"resource":"contacts"}`, maxRetries)
	require.NoError(t, err)
	return tk
}

func TestNewTask(t *testing.T) {
	t.Run("creates pending task", func(t *testing.T) {
		creator := uuid.New()
		tk, err := NewTask(uuid.New(), &creator, TaskTypeEmail, "", 3)

		require.NoError(t, err)
		assert.Equal(t, TaskStatusPending, tk.Status)
		assert.Equal(t, "{}", tk.Payload)
		assert.Equal(t, 0, tk.Attempts)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewTask(uuid.New(), nil, TaskType("backup"), "", 3)

		assert.Error(t, err)
	})

	t.Run("rejects negative retries", func(t *testing.T) {
		_, err := NewTask(uuid.New(), nil, TaskTypeEmail, "", -1)

		assert.Error(t, err)
	})
}

func TestTaskLifecycle(t *testing.T) {
	t.Run("start succeed", func(t *testing.T) {
		tk := newPending(t, 3)

		require.NoError(t, tk.Start())
		assert.Equal(t, TaskStatusRunning, tk.Status)
		assert.Equal(t, 1, tk.Attempts)

		tk.Succeed(`{"url":"https://example.com/export.csv"}`)
		assert.Equal(t, TaskStatusSucceeded, tk.Status)
		assert.Equal(t, 100, tk.Progress)
		assert.NotNil(t, tk.FinishedAt)
		assert.True(t, tk.Status.IsTerminal())
	})

	t.Run("running task cannot start again", func(t *testing.T) {
		tk := newPending(t, 3)
		require.NoError(t, tk.Start())

		assert.Error(t, tk.Start())
	})

	t.Run("failure with retries left moves to retrying", func(t *testing.T) {
		tk := newPending(t, 2)
		require.NoError(t, tk.Start())
		before := time.Now()

		tk.Fail("smtp timeout", 30*time.Second)

		assert.Equal(t, TaskStatusRetrying, tk.Status)
		assert.Equal(t, "smtp timeout", tk.Error)
		assert.True(t, tk.ScheduledAt.After(before))
		assert.Nil(t, tk.FinishedAt)

		// retrying tasks are runnable again
		require.NoError(t, tk.Start())
		assert.Equal(t, 2, tk.Attempts)
	})

	t.Run("failure after exhausting retries is terminal", func(t *testing.T) {
		tk := newPending(t, 1)

		require.NoError(t, tk.Start())
		tk.Fail("boom", time.Second)
		assert.Equal(t, TaskStatusRetrying, tk.Status)

		require.NoError(t, tk.Start())
		tk.Fail("boom again", time.Second)

		assert.Equal(t, TaskStatusFailed, tk.Status)
		assert.NotNil(t, tk.FinishedAt)
	})
}

func TestTaskCancel(t *testing.T) {
	t.Run("pending task cancels", func(t *testing.T) {
		tk := newPending(t, 3)

		require.NoError(t, tk.Cancel())
		assert.Equal(t, TaskStatusCancelled, tk.Status)
	})

	t.Run("running task cannot cancel", func(t *testing.T) {
		tk := newPending(t, 3)
		require.NoError(t, tk.Start())

		assert.Error(t, tk.Cancel())
	})
}

func TestTaskSetProgress(t *testing.T) {
	tk := newPending(t, 3)

	require.NoError(t, tk.SetProgress(40))
	assert.Equal(t, 40, tk.Progress)

	assert.Error(t, tk.SetProgress(-1))
	assert.Error(t, tk.SetProgress(101))
}

func TestRetryDelay(t *testing.T) {
	base := 10 * time.Second
	max := time.Minute

	assert.Equal(t, 10*time.Second, RetryDelay(base, max, 1))
	assert.Equal(t, 20*time.Second, RetryDelay(base, max, 2))
	assert.Equal(t, 40*time.Second, RetryDelay(base, max, 3))
	assert.Equal(t, time.Minute, RetryDelay(base, max, 4))
	assert.Equal(t, time.Minute, RetryDelay(base, max, 10))
}

func TestSnapshotOf(t *testing.T) {
	tk := newPending(t, 3)
	require.NoError(t, tk.Start())
	require.NoError(t, tk.SetProgress(55))

	snap := SnapshotOf(tk)

	assert.Equal(t, tk.ID, snap.TaskID)
	assert.Equal(t, tk.TenantID, snap.TenantID)
	assert.Equal(t, TaskStatusRunning, snap.Status)
	assert.Equal(t, 55, snap.Progress)
}
