package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/loanops/quarantine-api/internal/models"
)

// Constraint messages mirror the data-quality pipeline's expectations
// verbatim; operators see the same wording the pipeline reports.
const (
	MsgPaymentDate = "Payment date must be after 2020-12-31"
	MsgBalance     = "Both balance and arrears_balance must be positive"
	MsgCostCenter  = "Cost center code is required"
)

// ValidationService checks proposed edits against the pipeline constraints
// before any merge is attempted.
type ValidationService struct {
	logger *zap.Logger
	detect func(nextPaymentDate *string, balance, arrearsBalance *int64, costCenterCode *string) []models.ViolationType
}

// NewValidationService constructs a ValidationService.
func NewValidationService(logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{logger: logger, detect: models.DetectViolations}
}

// Validate evaluates each update independently and in order: result i always
// corresponds to update i. A failure evaluating one item marks that item
// invalid and moves on; it never aborts the batch. Batch-size limits are a
// boundary concern and are enforced at the handler, not here.
func (s *ValidationService) Validate(ctx context.Context, updates []models.QuarantineRecordUpdate) []models.ValidationResult {
	results := make([]models.ValidationResult, 0, len(updates))
	for _, update := range updates {
		results = append(results, s.validateOne(update))
	}
	return results
}

func (s *ValidationService) validateOne(update models.QuarantineRecordUpdate) (result models.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("validation panicked",
				zap.String("composite_key", update.CompositeKey),
				zap.Any("panic", r))
			result = models.ValidationResult{
				CompositeKey: update.CompositeKey,
				IsValid:      false,
				Violations:   []models.ViolationType{},
				Errors:       []string{fmt.Sprintf("Validation error: %v", r)},
			}
		}
	}()

	violations := s.detect(update.NextPaymentDate, update.Balance, update.ArrearsBalance, update.CostCenterCode)
	errs := make([]string, 0, len(violations))
	for _, v := range violations {
		switch v {
		case models.ViolationPaymentDate:
			errs = append(errs, MsgPaymentDate)
		case models.ViolationBalance:
			errs = append(errs, MsgBalance)
		case models.ViolationCostCenter:
			errs = append(errs, MsgCostCenter)
		}
	}

	return models.ValidationResult{
		CompositeKey: update.CompositeKey,
		IsValid:      len(violations) == 0,
		Violations:   violations,
		Errors:       errs,
	}
}

// ViolationDescriptions returns the operator-facing catalogue text per
// constraint type.
func ViolationDescriptions() map[models.ViolationType]string {
	return map[models.ViolationType]string{
		models.ViolationPaymentDate: "Payment date must be after 2020-12-31",
		models.ViolationBalance:     "Both balance and arrears balance must be positive",
		models.ViolationCostCenter:  "Cost center code is required",
	}
}
