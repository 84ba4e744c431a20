package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/loanops/quarantine-api/internal/models"
)

// AuditRepository appends entries to the audit trail table.
type AuditRepository struct {
	db    *sqlx.DB
	table string
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB, table string) *AuditRepository {
	return &AuditRepository{db: db, table: table}
}

// EnsureTable idempotently creates the audit table. Timestamp defaults to the
// write time so callers never supply it.
func (r *AuditRepository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	audit_id BIGSERIAL PRIMARY KEY,
	record_id BIGINT,
	record_date TEXT,
	user_email TEXT,
	action TEXT,
	old_values TEXT,
	new_values TEXT,
	violation_types TEXT,
	timestamp TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	session_id TEXT
)`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure audit table: %w", err)
	}
	return nil
}

// Insert appends one audit entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditTrailEntry) error {
	query := fmt.Sprintf(`INSERT INTO %s
(record_id, record_date, user_email, action, old_values, new_values, violation_types, session_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, r.table)
	if _, err := r.db.ExecContext(ctx, query,
		entry.RecordID, entry.RecordDate, entry.UserEmail, entry.Action,
		string(entry.OldValues), string(entry.NewValues), string(entry.ViolationTypes), entry.SessionID,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
