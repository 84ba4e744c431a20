package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/loanops/quarantine-api/internal/models"
)

// recordColumns is the explicit projection for quarantine reads. Derived
// fields are computed in Go, never selected.
const recordColumns = `id, date, status, next_payment_date, balance, arrears_balance, cost_center_code,
acc_fv_change_before_taxes, accounting_treatment_id, accrued_interest, base_rate, behavioral_curve_id,
count, country_code, encumbrance_type, end_date, first_payment_date, guarantee_scheme, imit_amount,
last_payment_date, minimum_balance_eur, purpose, type, accounting_treatment, _rescued_data`

// QuarantineRepository reads and mutates the quarantine table and copies
// corrected rows into the clean table. Table names are injected so tests and
// fixture environments can point the repository elsewhere.
type QuarantineRepository struct {
	db              *sqlx.DB
	quarantineTable string
	cleanTable      string
}

// NewQuarantineRepository constructs the repository.
func NewQuarantineRepository(db *sqlx.DB, quarantineTable, cleanTable string) *QuarantineRepository {
	return &QuarantineRepository{db: db, quarantineTable: quarantineTable, cleanTable: cleanTable}
}

// SelectPage fetches one page of quarantine rows and finalizes their derived
// fields.
func (r *QuarantineRepository) SelectPage(ctx context.Context, limit, offset int) ([]models.QuarantineRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s LIMIT $1 OFFSET $2`, recordColumns, r.quarantineTable)
	var records []models.QuarantineRecord
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, fmt.Errorf("select quarantine page: %w", err)
	}
	for i := range records {
		records[i].Finalize()
	}
	return records, nil
}

// SelectAll fetches the entire quarantine table. Used by the table-scoped
// violation counting path only.
func (r *QuarantineRepository) SelectAll(ctx context.Context) ([]models.QuarantineRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s`, recordColumns, r.quarantineTable)
	var records []models.QuarantineRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("select quarantine table: %w", err)
	}
	for i := range records {
		records[i].Finalize()
	}
	return records, nil
}

// CountAll returns the unfiltered quarantine row count.
func (r *QuarantineRepository) CountAll(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.quarantineTable)
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count quarantine rows: %w", err)
	}
	return total, nil
}

// UpdateFields applies the operator-edited fields to the row identified by the
// full (id, date, status) triple.
func (r *QuarantineRepository) UpdateFields(ctx context.Context, id int64, date, status string, update models.QuarantineRecordUpdate) error {
	query := fmt.Sprintf(`UPDATE %s
SET next_payment_date = $1, balance = $2, arrears_balance = $3, cost_center_code = $4
WHERE id = $5 AND date = $6 AND status = $7`, r.quarantineTable)
	if _, err := r.db.ExecContext(ctx, query,
		update.NextPaymentDate, update.Balance, update.ArrearsBalance, update.CostCenterCode,
		id, date, status,
	); err != nil {
		return fmt.Errorf("update quarantine row: %w", err)
	}
	return nil
}

// CopyToClean inserts the current quarantine row into the clean table.
func (r *QuarantineRepository) CopyToClean(ctx context.Context, id int64, date, status string) error {
	query := fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s WHERE id = $1 AND date = $2 AND status = $3`,
		r.cleanTable, r.quarantineTable)
	if _, err := r.db.ExecContext(ctx, query, id, date, status); err != nil {
		return fmt.Errorf("copy row to clean table: %w", err)
	}
	return nil
}

// Delete removes the row from the quarantine table.
func (r *QuarantineRepository) Delete(ctx context.Context, id int64, date, status string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND date = $2 AND status = $3`, r.quarantineTable)
	if _, err := r.db.ExecContext(ctx, query, id, date, status); err != nil {
		return fmt.Errorf("delete quarantine row: %w", err)
	}
	return nil
}
