package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanops/quarantine-api/internal/dto"
	"github.com/loanops/quarantine-api/internal/models"
	appErrors "github.com/loanops/quarantine-api/pkg/errors"
)

type listerStub struct {
	resp *dto.QuarantineResponse
}

func (s *listerStub) List(ctx context.Context, filter dto.QuarantineFilter) *dto.QuarantineResponse {
	return s.resp
}

func exportFixture() *listerStub {
	rec := quarantineRecord(1001, "2024-12-15", strPtr("2020-06-15"), nil, intPtr(1500), strPtr(""))
	return &listerStub{resp: &dto.QuarantineResponse{
		Records:       []models.QuarantineRecord{rec},
		TotalCount:    1,
		FilteredCount: 1,
	}}
}

func TestExportServiceCSV(t *testing.T) {
	svc := NewExportService(exportFixture(), nil)

	result, err := svc.Export(context.Background(), dto.QuarantineFilter{Limit: 100}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	content := string(result.Content)
	assert.Contains(t, content, "composite_key")
	assert.Contains(t, content, "1001_2024-12-15_pending")
	assert.Contains(t, content, "PAYMENT_DATE;BALANCE;COST_CENTER")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(exportFixture(), nil)

	result, err := svc.Export(context.Background(), dto.QuarantineFilter{Limit: 100}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := NewExportService(exportFixture(), nil)

	_, err := svc.Export(context.Background(), dto.QuarantineFilter{Limit: 100}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
