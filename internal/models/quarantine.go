package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ViolationType identifies which pipeline constraint a record violates.
type ViolationType string

const (
	ViolationPaymentDate ViolationType = "PAYMENT_DATE"
	ViolationBalance     ViolationType = "BALANCE"
	ViolationCostCenter  ViolationType = "COST_CENTER"
)

// AllViolationTypes lists every constraint in declaration order.
func AllViolationTypes() []ViolationType {
	return []ViolationType{ViolationPaymentDate, ViolationBalance, ViolationCostCenter}
}

// ParseViolationType validates a violation type token.
func ParseViolationType(raw string) (ViolationType, bool) {
	switch ViolationType(raw) {
	case ViolationPaymentDate, ViolationBalance, ViolationCostCenter:
		return ViolationType(raw), true
	}
	return "", false
}

// PaymentDateFloor is the exclusive lower bound enforced by the pipeline on
// next_payment_date. ISO dates compare correctly as strings, which is how the
// pipeline itself evaluates the constraint.
const PaymentDateFloor = "2020-12-31"

// DetectViolations classifies the editable fields against the pipeline's
// declarative constraints. All three rules are always evaluated; the result is
// the full set of violated constraints, empty when the fields are clean. This
// is the single source of truth for constraint semantics: record loading and
// update validation both go through it.
func DetectViolations(nextPaymentDate *string, balance, arrearsBalance *int64, costCenterCode *string) []ViolationType {
	var violations []ViolationType

	if nextPaymentDate == nil || *nextPaymentDate == "" || *nextPaymentDate <= PaymentDateFloor {
		violations = append(violations, ViolationPaymentDate)
	}

	if balance == nil || *balance <= 0 || arrearsBalance == nil || *arrearsBalance <= 0 {
		violations = append(violations, ViolationBalance)
	}

	if costCenterCode == nil || *costCenterCode == "" {
		violations = append(violations, ViolationCostCenter)
	}

	return violations
}

// QuarantineRecord is a snapshot of one quarantined row at query time.
//
// The quarantine table has no single-column primary key and the same id can
// recur across dates and statuses, so the (id, date, status) triple is the
// only stable identity. ViolationTypes and CompositeKey are derived on load
// and are never read back from storage or accepted from clients.
type QuarantineRecord struct {
	ID     int64  `db:"id" json:"id"`
	Date   string `db:"date" json:"date"`
	Status string `db:"status" json:"status"`

	// Editable constraint fields.
	NextPaymentDate *string `db:"next_payment_date" json:"next_payment_date,omitempty"`
	Balance         *int64  `db:"balance" json:"balance,omitempty"`
	ArrearsBalance  *int64  `db:"arrears_balance" json:"arrears_balance,omitempty"`
	CostCenterCode  *string `db:"cost_center_code" json:"cost_center_code,omitempty"`

	// Read-only context carried through for display.
	AccFVChangeBeforeTaxes *int64  `db:"acc_fv_change_before_taxes" json:"acc_fv_change_before_taxes,omitempty"`
	AccountingTreatmentID  *int64  `db:"accounting_treatment_id" json:"accounting_treatment_id,omitempty"`
	AccruedInterest        *int64  `db:"accrued_interest" json:"accrued_interest,omitempty"`
	BaseRate               *string `db:"base_rate" json:"base_rate,omitempty"`
	BehavioralCurveID      *int64  `db:"behavioral_curve_id" json:"behavioral_curve_id,omitempty"`
	Count                  *int64  `db:"count" json:"count,omitempty"`
	CountryCode            *string `db:"country_code" json:"country_code,omitempty"`
	EncumbranceType        *string `db:"encumbrance_type" json:"encumbrance_type,omitempty"`
	EndDate                *string `db:"end_date" json:"end_date,omitempty"`
	FirstPaymentDate       *string `db:"first_payment_date" json:"first_payment_date,omitempty"`
	GuaranteeScheme        *string `db:"guarantee_scheme" json:"guarantee_scheme,omitempty"`
	LimitAmount            *int64  `db:"imit_amount" json:"imit_amount,omitempty"`
	LastPaymentDate        *string `db:"last_payment_date" json:"last_payment_date,omitempty"`
	MinimumBalanceEUR      *int64  `db:"minimum_balance_eur" json:"minimum_balance_eur,omitempty"`
	Purpose                *string `db:"purpose" json:"purpose,omitempty"`
	Type                   *string `db:"type" json:"type,omitempty"`
	AccountingTreatment    *string `db:"accounting_treatment" json:"accounting_treatment,omitempty"`
	RescuedData            *string `db:"_rescued_data" json:"rescued_data,omitempty"`

	// Derived on load, never stored.
	ViolationTypes []ViolationType `db:"-" json:"violation_types"`
	CompositeKey   string          `db:"-" json:"composite_key"`
}

// Finalize recomputes the derived fields from the row data. Must be called
// after scanning a row; any client-supplied values are discarded.
func (r *QuarantineRecord) Finalize() {
	r.CompositeKey = BuildCompositeKey(r.ID, r.Date, r.Status)
	r.ViolationTypes = DetectViolations(r.NextPaymentDate, r.Balance, r.ArrearsBalance, r.CostCenterCode)
}

// HasViolation reports whether the record violates the given constraint.
func (r *QuarantineRecord) HasViolation(vt ViolationType) bool {
	for _, v := range r.ViolationTypes {
		if v == vt {
			return true
		}
	}
	return false
}

// BuildCompositeKey renders the derived identity "{id}_{date}_{status}".
func BuildCompositeKey(id int64, date, status string) string {
	return fmt.Sprintf("%d_%s_%s", id, date, status)
}

// SplitCompositeKey recovers (id, date, status) by splitting on the first two
// underscores only. The id is numeric and the date is an ISO string, so those
// two separators are unambiguous; anything after them, underscores included,
// belongs to the status.
func SplitCompositeKey(key string) (int64, string, string, error) {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 {
		return 0, "", "", fmt.Errorf("malformed composite key %q: want id_date_status", key)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("malformed composite key %q: non-numeric id: %w", key, err)
	}
	return id, parts[1], parts[2], nil
}

// QuarantineRecordUpdate is the operator-editable subset of a record,
// addressed by composite key.
type QuarantineRecordUpdate struct {
	CompositeKey    string  `json:"composite_key" validate:"required"`
	NextPaymentDate *string `json:"next_payment_date,omitempty"`
	Balance         *int64  `json:"balance,omitempty"`
	ArrearsBalance  *int64  `json:"arrears_balance,omitempty"`
	CostCenterCode  *string `json:"cost_center_code,omitempty"`
}

// ChangedFields returns the non-nil editable fields for audit logging.
func (u QuarantineRecordUpdate) ChangedFields() map[string]interface{} {
	fields := map[string]interface{}{"composite_key": u.CompositeKey}
	if u.NextPaymentDate != nil {
		fields["next_payment_date"] = *u.NextPaymentDate
	}
	if u.Balance != nil {
		fields["balance"] = *u.Balance
	}
	if u.ArrearsBalance != nil {
		fields["arrears_balance"] = *u.ArrearsBalance
	}
	if u.CostCenterCode != nil {
		fields["cost_center_code"] = *u.CostCenterCode
	}
	return fields
}

// ValidationResult reports the outcome of validating one update.
type ValidationResult struct {
	CompositeKey string          `json:"composite_key"`
	IsValid      bool            `json:"is_valid"`
	Violations   []ViolationType `json:"violations"`
	Errors       []string        `json:"errors"`
}

// MergeResult aggregates the outcome of a merge batch.
type MergeResult struct {
	TotalRecords      int      `json:"total_records"`
	MergedRecords     int      `json:"merged_records"`
	FailedRecords     int      `json:"failed_records"`
	PipelineTriggered bool     `json:"pipeline_triggered"`
	Errors            []string `json:"errors"`
}

// Pagination describes paging metadata on list responses.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
