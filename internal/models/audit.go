package models

import "time"

// AuditAction constants represent actions recorded against quarantine rows.
const (
	AuditActionEdit             = "EDIT"
	AuditActionMerge            = "MERGE"
	AuditActionValidationFailed = "VALIDATION_FAILED"
)

// AuditTrailEntry is a durable record of an edit or merge. The audit table is
// append-only; entries are written by the merge engine and never mutated.
type AuditTrailEntry struct {
	AuditID        *int64     `db:"audit_id" json:"audit_id,omitempty"`
	RecordID       int64      `db:"record_id" json:"record_id"`
	RecordDate     string     `db:"record_date" json:"record_date"`
	UserEmail      string     `db:"user_email" json:"user_email"`
	Action         string     `db:"action" json:"action"`
	OldValues      []byte     `db:"old_values" json:"old_values,omitempty"`
	NewValues      []byte     `db:"new_values" json:"new_values,omitempty"`
	ViolationTypes []byte     `db:"violation_types" json:"violation_types,omitempty"`
	Timestamp      *time.Time `db:"timestamp" json:"timestamp,omitempty"`
	SessionID      string     `db:"session_id" json:"session_id"`
}
