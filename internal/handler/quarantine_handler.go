package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/loanops/quarantine-api/internal/dto"
	"github.com/loanops/quarantine-api/internal/models"
	"github.com/loanops/quarantine-api/internal/service"
	appErrors "github.com/loanops/quarantine-api/pkg/errors"
	"github.com/loanops/quarantine-api/pkg/response"
)

// maxBatchSize caps synchronous validate/merge batches. Async merges are
// deliberately unchecked: the queue absorbs large batches.
const maxBatchSize = 100

const defaultUserEmail = "system"

type quarantineQueryService interface {
	List(ctx context.Context, filter dto.QuarantineFilter) *dto.QuarantineResponse
	CountsByViolationType(ctx context.Context) map[string]int
}

type validationService interface {
	Validate(ctx context.Context, updates []models.QuarantineRecordUpdate) []models.ValidationResult
}

type mergeService interface {
	Merge(ctx context.Context, updates []models.QuarantineRecordUpdate, userEmail string) *models.MergeResult
	MergeAsync(ctx context.Context, updates []models.QuarantineRecordUpdate, userEmail string) (string, error)
}

type exportService interface {
	Export(ctx context.Context, filter dto.QuarantineFilter, format service.ExportFormat) (*service.ExportResult, error)
}

// QuarantineHandler exposes the quarantine remediation endpoints.
type QuarantineHandler struct {
	query    quarantineQueryService
	validate validationService
	merge    mergeService
	export   exportService
	payload  *validator.Validate
}

// NewQuarantineHandler builds a new handler.
func NewQuarantineHandler(query quarantineQueryService, validate validationService, merge mergeService, export exportService, payload *validator.Validate) *QuarantineHandler {
	if payload == nil {
		payload = validator.New()
	}
	return &QuarantineHandler{query: query, validate: validate, merge: merge, export: export, payload: payload}
}

// RegisterRoutes attaches the quarantine endpoints to the given group.
func (h *QuarantineHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/records", h.ListRecords)
	g.GET("/records/export", h.ExportRecords)
	g.GET("/violation-counts", h.ViolationCounts)
	g.GET("/violation-types", h.ViolationTypes)
	g.POST("/validate", h.ValidateRecords)
	g.POST("/validate-batch", h.ValidateBatch)
	g.POST("/merge", h.MergeRecords)
	g.POST("/merge-async", h.MergeRecordsAsync)
	g.GET("/health", h.Health)
}

// ListRecords godoc
// @Summary List quarantined records
// @Tags Quarantine
// @Produce json
// @Param violation_type query string false "Filter by violation type"
// @Param limit query int false "Page size (1-2000)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.QuarantineResponse
// @Router /records [get]
func (h *QuarantineHandler) ListRecords(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := h.query.List(c.Request.Context(), filter)
	c.JSON(http.StatusOK, resp)
}

// ViolationCounts godoc
// @Summary Violation counts across the whole quarantine table
// @Tags Quarantine
// @Produce json
// @Success 200 {object} dto.ViolationCountsResponse
// @Router /violation-counts [get]
func (h *QuarantineHandler) ViolationCounts(c *gin.Context) {
	counts := h.query.CountsByViolationType(c.Request.Context())
	c.JSON(http.StatusOK, dto.ViolationCountsResponse{ViolationCounts: counts})
}

// ValidateRecords godoc
// @Summary Validate record updates against pipeline constraints
// @Tags Quarantine
// @Accept json
// @Produce json
// @Param payload body []models.QuarantineRecordUpdate true "Updates"
// @Success 200 {array} models.ValidationResult
// @Router /validate [post]
func (h *QuarantineHandler) ValidateRecords(c *gin.Context) {
	var updates []models.QuarantineRecordUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	if err := checkBatchSize(updates); err != nil {
		response.Error(c, err)
		return
	}
	results := h.validate.Validate(c.Request.Context(), updates)
	c.JSON(http.StatusOK, results)
}

// ValidateBatch godoc
// @Summary Validate a batch of updates with summary statistics
// @Tags Quarantine
// @Accept json
// @Produce json
// @Param payload body dto.BatchUpdateRequest true "Batch payload"
// @Success 200 {object} dto.BatchValidationResult
// @Router /validate-batch [post]
func (h *QuarantineHandler) ValidateBatch(c *gin.Context) {
	req, err := h.bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := checkBatchSize(req.Updates); err != nil {
		response.Error(c, err)
		return
	}
	results := h.validate.Validate(c.Request.Context(), req.Updates)

	validCount := 0
	for _, r := range results {
		if r.IsValid {
			validCount++
		}
	}
	c.JSON(http.StatusOK, dto.BatchValidationResult{
		TotalRecords:   len(results),
		ValidRecords:   validCount,
		InvalidRecords: len(results) - validCount,
		Results:        results,
	})
}

// MergeRecords godoc
// @Summary Merge validated records into the clean table
// @Tags Quarantine
// @Accept json
// @Produce json
// @Param payload body dto.BatchUpdateRequest true "Batch payload"
// @Success 200 {object} models.MergeResult
// @Router /merge [post]
func (h *QuarantineHandler) MergeRecords(c *gin.Context) {
	req, err := h.bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := checkBatchSize(req.Updates); err != nil {
		response.Error(c, err)
		return
	}
	result := h.merge.Merge(c.Request.Context(), req.Updates, userEmailOrDefault(req.UserEmail))
	c.JSON(http.StatusOK, result)
}

// MergeRecordsAsync godoc
// @Summary Merge records in the background
// @Tags Quarantine
// @Accept json
// @Produce json
// @Param payload body dto.BatchUpdateRequest true "Batch payload"
// @Success 200 {object} dto.AsyncMergeResponse
// @Router /merge-async [post]
func (h *QuarantineHandler) MergeRecordsAsync(c *gin.Context) {
	req, err := h.bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	taskID, err := h.merge.MergeAsync(c.Request.Context(), req.Updates, userEmailOrDefault(req.UserEmail))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start merge operation"))
		return
	}
	c.JSON(http.StatusOK, dto.AsyncMergeResponse{
		TaskID:  taskID,
		Status:  "processing",
		Message: fmt.Sprintf("Processing %d records in background", len(req.Updates)),
	})
}

// ViolationTypes godoc
// @Summary List the violation-type catalogue
// @Tags Quarantine
// @Produce json
// @Success 200 {object} map[string][]dto.ViolationTypeInfo
// @Router /violation-types [get]
func (h *QuarantineHandler) ViolationTypes(c *gin.Context) {
	descriptions := service.ViolationDescriptions()
	infos := make([]dto.ViolationTypeInfo, 0, 3)
	for _, vt := range models.AllViolationTypes() {
		infos = append(infos, dto.ViolationTypeInfo{
			Value:       string(vt),
			Name:        displayName(string(vt)),
			Description: descriptions[vt],
		})
	}
	c.JSON(http.StatusOK, gin.H{"violation_types": infos})
}

// ExportRecords godoc
// @Summary Export a page of quarantined records
// @Tags Quarantine
// @Produce text/csv
// @Param format query string false "csv or pdf"
// @Router /records/export [get]
func (h *QuarantineHandler) ExportRecords(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.export.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Health godoc
// @Summary Quarantine API health check
// @Tags Quarantine
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *QuarantineHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "quarantine_api"})
}

func (h *QuarantineHandler) bindBatch(c *gin.Context) (*dto.BatchUpdateRequest, error) {
	var req dto.BatchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload")
	}
	if err := h.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrEmptyBatch.Code, http.StatusBadRequest, "no records provided")
	}
	return &req, nil
}

func checkBatchSize(updates []models.QuarantineRecordUpdate) error {
	if len(updates) == 0 {
		return appErrors.ErrEmptyBatch
	}
	if len(updates) > maxBatchSize {
		return appErrors.ErrBatchTooLarge
	}
	return nil
}

func parseFilter(c *gin.Context) (dto.QuarantineFilter, error) {
	filter := dto.QuarantineFilter{Limit: 100, Offset: 0}

	if raw := c.Query("violation_type"); raw != "" {
		vt, ok := models.ParseViolationType(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown violation type %q", raw))
		}
		filter.ViolationType = &vt
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer")
		}
		filter.Limit = clamp(limit, 1, 2000)
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "offset must be an integer")
		}
		if offset < 0 {
			offset = 0
		}
		filter.Offset = offset
	}

	return filter, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func userEmailOrDefault(email string) string {
	if email == "" {
		return defaultUserEmail
	}
	return email
}

// displayName turns "PAYMENT_DATE" into "Payment Date".
func displayName(token string) string {
	parts := strings.Split(strings.ToLower(token), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
