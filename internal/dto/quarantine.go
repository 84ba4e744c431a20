package dto

import "github.com/loanops/quarantine-api/internal/models"

// QuarantineFilter carries list options for quarantine queries.
type QuarantineFilter struct {
	ViolationType *models.ViolationType
	Limit         int
	Offset        int
}

// QuarantineResponse is the payload for a paginated quarantine query.
//
// TotalCount is the unfiltered table size; FilteredCount and ViolationTypeCounts
// are scoped to the fetched page, not the whole table.
type QuarantineResponse struct {
	Records             []models.QuarantineRecord `json:"records"`
	TotalCount          int                       `json:"total_count"`
	FilteredCount       int                       `json:"filtered_count"`
	ViolationTypeCounts map[string]int            `json:"violation_type_counts"`
}

// EmptyQuarantineResponse returns the zero-valued response used on storage
// degradation, with all counters present.
func EmptyQuarantineResponse() *QuarantineResponse {
	counts := make(map[string]int, 3)
	for _, vt := range models.AllViolationTypes() {
		counts[string(vt)] = 0
	}
	return &QuarantineResponse{
		Records:             []models.QuarantineRecord{},
		ViolationTypeCounts: counts,
	}
}

// BatchUpdateRequest is the payload for validate-batch and merge operations.
type BatchUpdateRequest struct {
	Updates   []models.QuarantineRecordUpdate `json:"updates" validate:"required,min=1,dive"`
	UserEmail string                          `json:"user_email"`
}

// BatchValidationResult summarises a validation batch.
type BatchValidationResult struct {
	TotalRecords   int                       `json:"total_records"`
	ValidRecords   int                       `json:"valid_records"`
	InvalidRecords int                       `json:"invalid_records"`
	Results        []models.ValidationResult `json:"results"`
}

// AsyncMergeResponse acknowledges a background merge hand-off.
type AsyncMergeResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ViolationTypeInfo describes one constraint for the catalogue endpoint.
type ViolationTypeInfo struct {
	Value       string `json:"value"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ViolationCountsResponse wraps table-scoped violation counts.
type ViolationCountsResponse struct {
	ViolationCounts map[string]int `json:"violation_counts"`
}
