package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/loanops/quarantine-api/internal/dto"
	"github.com/loanops/quarantine-api/internal/models"
	appErrors "github.com/loanops/quarantine-api/pkg/errors"
	"github.com/loanops/quarantine-api/pkg/export"
)

// ExportFormat enumerates supported snapshot formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type quarantineLister interface {
	List(ctx context.Context, filter dto.QuarantineFilter) *dto.QuarantineResponse
}

// ExportResult carries the rendered snapshot and its metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a page of quarantine records as a CSV or PDF
// snapshot for offline review.
type ExportService struct {
	lister quarantineLister
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(lister quarantineLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		lister: lister,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{
	"composite_key", "id", "date", "status",
	"next_payment_date", "balance", "arrears_balance", "cost_center_code",
	"violations",
}

// Export fetches the requested page and renders it in the given format.
func (s *ExportService) Export(ctx context.Context, filter dto.QuarantineFilter, format ExportFormat) (*ExportResult, error) {
	resp := s.lister.List(ctx, filter)

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(resp.Records))}
	for _, rec := range resp.Records {
		dataset.Rows = append(dataset.Rows, recordRow(rec))
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("quarantine_%s.csv", stamp),
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Quarantine Records")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("quarantine_%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func recordRow(rec models.QuarantineRecord) map[string]string {
	row := map[string]string{
		"composite_key": rec.CompositeKey,
		"id":            strconv.FormatInt(rec.ID, 10),
		"date":          rec.Date,
		"status":        rec.Status,
	}
	if rec.NextPaymentDate != nil {
		row["next_payment_date"] = *rec.NextPaymentDate
	}
	if rec.Balance != nil {
		row["balance"] = strconv.FormatInt(*rec.Balance, 10)
	}
	if rec.ArrearsBalance != nil {
		row["arrears_balance"] = strconv.FormatInt(*rec.ArrearsBalance, 10)
	}
	if rec.CostCenterCode != nil {
		row["cost_center_code"] = *rec.CostCenterCode
	}
	violations := ""
	for i, vt := range rec.ViolationTypes {
		if i > 0 {
			violations += ";"
		}
		violations += string(vt)
	}
	row["violations"] = violations
	return row
}
