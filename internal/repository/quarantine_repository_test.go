package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanops/quarantine-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func recordRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "date", "status", "next_payment_date", "balance", "arrears_balance", "cost_center_code",
		"acc_fv_change_before_taxes", "accounting_treatment_id", "accrued_interest", "base_rate",
		"behavioral_curve_id", "count", "country_code", "encumbrance_type", "end_date",
		"first_payment_date", "guarantee_scheme", "imit_amount", "last_payment_date",
		"minimum_balance_eur", "purpose", "type", "accounting_treatment", "_rescued_data",
	})
}

func addRecordRow(rows *sqlmock.Rows, id int64, date, status string, nextPaymentDate interface{}, balance, arrears interface{}, costCenter interface{}) {
	rows.AddRow(id, date, status, nextPaymentDate, balance, arrears, costCenter,
		nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
}

func TestQuarantineRepositorySelectPageFinalizesRecords(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuarantineRepository(db, "quarantine_bad_txs", "cleaned_new_txs")
	rows := recordRows()
	addRecordRow(rows, 1001, "2024-12-15", "pending", "2020-06-15", nil, int64(1500), "")
	mock.ExpectQuery("SELECT id, date, status").
		WithArgs(100, 0).
		WillReturnRows(rows)

	records, err := repo.SelectPage(context.Background(), 100, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1001_2024-12-15_pending", records[0].CompositeKey)
	assert.ElementsMatch(t, []models.ViolationType{
		models.ViolationPaymentDate, models.ViolationBalance, models.ViolationCostCenter,
	}, records[0].ViolationTypes)
}

func TestQuarantineRepositoryCountAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuarantineRepository(db, "quarantine_bad_txs", "cleaned_new_txs")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM quarantine_bad_txs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
}

func TestQuarantineRepositoryUpdateFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuarantineRepository(db, "quarantine_bad_txs", "cleaned_new_txs")
	mock.ExpectExec("UPDATE quarantine_bad_txs").
		WithArgs("2024-06-15", int64(5000), int64(1500), "CC001", int64(1001), "2024-12-15", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	date := "2024-06-15"
	balance := int64(5000)
	arrears := int64(1500)
	cc := "CC001"
	err := repo.UpdateFields(context.Background(), 1001, "2024-12-15", "pending", models.QuarantineRecordUpdate{
		CompositeKey:    "1001_2024-12-15_pending",
		NextPaymentDate: &date,
		Balance:         &balance,
		ArrearsBalance:  &arrears,
		CostCenterCode:  &cc,
	})
	require.NoError(t, err)
}

func TestQuarantineRepositoryCopyToCleanAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuarantineRepository(db, "quarantine_bad_txs", "cleaned_new_txs")
	mock.ExpectExec("INSERT INTO cleaned_new_txs SELECT \\* FROM quarantine_bad_txs").
		WithArgs(int64(1001), "2024-12-15", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM quarantine_bad_txs").
		WithArgs(int64(1001), "2024-12-15", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CopyToClean(context.Background(), 1001, "2024-12-15", "pending"))
	require.NoError(t, repo.Delete(context.Background(), 1001, "2024-12-15", "pending"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuarantineRepositorySelectAllPropagatesError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuarantineRepository(db, "quarantine_bad_txs", "cleaned_new_txs")
	mock.ExpectQuery("SELECT id, date, status").
		WillReturnError(errors.New("warehouse offline"))

	_, err := repo.SelectAll(context.Background())
	require.Error(t, err)
}
