package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockTaskRepository creates a GormTaskRepository with a mocked SQL connection
func newMockTaskRepository(t *testing.T) (*GormTaskRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTaskRepository(gormDB), mock, mockDB
}

func TestGormTaskRepository_FindByID(t *testing.T) {
	t.Run("finds task within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockTaskRepository(t)
		defer mockDB.Close()

		taskID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "status", "payload", "progress"}).
			AddRow(taskID, tenantID, "export", "pending", "{}", 0)

		mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, taskID, 1).
			WillReturnRows(rows)

		found, err := repo.FindByID(context.Background(), tenantID, taskID)

		assert.NoError(t, err)
		assert.Equal(t, task.TaskTypeExport, found.Type)
		assert.Equal(t, task.TaskStatusPending, found.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not leak tasks across tenants", func(t *testing.T) {
		repo, mock, mockDB := newMockTaskRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WillReturnError(gorm.ErrRecordNotFound)

		found, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())

		assert.Nil(t, found)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormTaskRepository_FindRunnable(t *testing.T) {
	t.Run("picks pending and due retrying tasks oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockTaskRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "status", "payload"}).
			AddRow(uuid.New(), uuid.New(), "email", "pending", "{}").
			AddRow(uuid.New(), uuid.New(), "report", "retrying", "{}")

		mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE status = \$1 OR \(status = \$2 AND scheduled_at <= \$3\) ORDER BY scheduled_at ASC LIMIT .*`).
			WillReturnRows(rows)

		tasks, err := repo.FindRunnable(context.Background(), 10)

		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTaskRepository_UpdateProgress(t *testing.T) {
	t.Run("writes only status, progress and error", func(t *testing.T) {
		repo, mock, mockDB := newMockTaskRepository(t)
		defer mockDB.Close()

		tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeExport, "{}", 3)
		require.NoError(t, err)
		require.NoError(t, tk.Start())
		require.NoError(t, tk.SetProgress(40))

		mock.ExpectExec(`UPDATE "tasks" SET "error"=\$1,"progress"=\$2,"status"=\$3,"updated_at"=\$4 WHERE id = \$5`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.UpdateProgress(context.Background(), tk)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTaskRepository_CountForTenant(t *testing.T) {
	t.Run("applies type and status filters", func(t *testing.T) {
		repo, mock, mockDB := newMockTaskRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks" WHERE tenant_id = \$1 AND type = \$2 AND status = \$3`).
			WithArgs(tenantID, "export", "succeeded").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.CountForTenant(context.Background(), tenantID, shared.Filter{
			Filters: map[string]interface{}{"type": "export", "status": "succeeded"},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
