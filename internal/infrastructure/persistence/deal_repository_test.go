package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDealRepository creates a GormDealRepository with a mocked SQL connection
func newMockDealRepository(t *testing.T) (*GormDealRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormDealRepository(gormDB), mock, mockDB
}

func TestGormDealRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds deal within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "title", "amount", "currency", "stage"}).
			AddRow(dealID, tenantID, "Renewal Q4", decimal.NewFromInt(5000), "USD", "prospect")

		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, dealID, 1).
			WillReturnRows(rows)

		d, err := repo.FindByIDForTenant(context.Background(), tenantID, dealID)

		assert.NoError(t, err)
		assert.NotNil(t, d)
		assert.Equal(t, "Renewal Q4", d.Title)
		assert.Equal(t, deal.StageProspect, d.Stage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing deal", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WillReturnError(gorm.ErrRecordNotFound)

		d, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		assert.Error(t, err)
		assert.Nil(t, d)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormDealRepository_FindClosedBetween(t *testing.T) {
	t.Run("filters by actual close date", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "title", "stage"}).
			AddRow(uuid.New(), tenantID, "Closed deal", "closed_won")

		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE deleted_at IS NULL AND \(tenant_id = \$1 AND actual_close_date >= \$2 AND actual_close_date < \$3\) ORDER BY actual_close_date ASC`).
			WithArgs(tenantID, from, to).
			WillReturnRows(rows)

		deals, err := repo.FindClosedBetween(context.Background(), tenantID, from, to)

		assert.NoError(t, err)
		assert.Len(t, deals, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDealRepository_SaveWithHistory(t *testing.T) {
	t.Run("updates deal and appends stage history in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		ownerID := uuid.New()
		d, err := deal.NewDeal(tenantID, ownerID, uuid.New(), "Renewal Q4", decimal.NewFromInt(5000), "USD")
		require.NoError(t, err)
		history, err := d.ChangeStage(deal.StageQualified, ownerID, "")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "deals" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "deal_stage_history"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveWithHistory(context.Background(), d, history)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on version conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		ownerID := uuid.New()
		d, err := deal.NewDeal(tenantID, ownerID, uuid.New(), "Renewal Q4", decimal.NewFromInt(5000), "USD")
		require.NoError(t, err)
		history, err := d.ChangeStage(deal.StageQualified, ownerID, "")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "deals" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithHistory(context.Background(), d, history)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDealRepository_PipelineSummary(t *testing.T) {
	t.Run("groups count and value by stage", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"stage", "count", "value"}).
			AddRow("prospect", 4, "12000").
			AddRow("closed_won", 2, "9000")

		mock.ExpectQuery(`SELECT stage, COUNT\(\*\) AS count, COALESCE\(SUM\(amount\), 0\) AS value FROM "deals" WHERE deleted_at IS NULL AND \(tenant_id = \$1\) GROUP BY .*`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		summaries, err := repo.PipelineSummary(context.Background(), tenantID)

		assert.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, deal.StageProspect, summaries[0].Stage)
		assert.Equal(t, int64(4), summaries[0].Count)
		assert.True(t, summaries[0].Value.Equal(decimal.NewFromInt(12000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDealRepository_WinRate(t *testing.T) {
	t.Run("computes ratio of won to closed", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FILTER \(WHERE stage = \$1\) AS won, COUNT\(\*\) AS closed FROM "deals" WHERE deleted_at IS NULL AND \(tenant_id = \$2 AND stage IN \(\$3,\$4\)\)`).
			WillReturnRows(sqlmock.NewRows([]string{"won", "closed"}).AddRow(3, 4))

		rate, err := repo.WinRate(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.InDelta(t, 0.75, rate, 0.0001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when nothing closed", func(t *testing.T) {
		repo, mock, mockDB := newMockDealRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FILTER \(WHERE stage = \$1\) AS won, COUNT\(\*\) AS closed FROM "deals"`).
			WillReturnRows(sqlmock.NewRows([]string{"won", "closed"}).AddRow(0, 0))

		rate, err := repo.WinRate(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.Zero(t, rate)
	})
}
