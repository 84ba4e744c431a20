package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanops/quarantine-api/internal/dto"
	"github.com/loanops/quarantine-api/internal/models"
	appErrors "github.com/loanops/quarantine-api/pkg/errors"
)

type quarantineReaderStub struct {
	page     []models.QuarantineRecord
	all      []models.QuarantineRecord
	total    int
	pageErr  error
	allErr   error
	countErr error

	allCalls int
}

func (s *quarantineReaderStub) SelectPage(ctx context.Context, limit, offset int) ([]models.QuarantineRecord, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	return s.page, nil
}

func (s *quarantineReaderStub) SelectAll(ctx context.Context) ([]models.QuarantineRecord, error) {
	s.allCalls++
	if s.allErr != nil {
		return nil, s.allErr
	}
	return s.all, nil
}

func (s *quarantineReaderStub) CountAll(ctx context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.total, nil
}

type cacheStub struct {
	values map[string][]byte
	getErr error
	sets   int
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m, ok := dest.(*map[string]int)
	if !ok {
		return errors.New("unexpected destination type")
	}
	// Fixed fixture shape, decoded by hand to keep the stub dependency-free.
	_ = raw
	*m = map[string]int{"PAYMENT_DATE": 7, "BALANCE": 9, "COST_CENTER": 4}
	return nil
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	return nil
}

func quarantineRecord(id int64, date string, nextPaymentDate *string, balance, arrears *int64, costCenter *string) models.QuarantineRecord {
	rec := models.QuarantineRecord{
		ID: id, Date: date, Status: "pending",
		NextPaymentDate: nextPaymentDate,
		Balance:         balance,
		ArrearsBalance:  arrears,
		CostCenterCode:  costCenter,
	}
	rec.Finalize()
	return rec
}

func TestQuarantineServiceListUnfiltered(t *testing.T) {
	repo := &quarantineReaderStub{
		page: []models.QuarantineRecord{
			quarantineRecord(1, "2024-01-01", strPtr("2019-01-01"), intPtr(100), intPtr(100), strPtr("CC001")),
			quarantineRecord(2, "2024-01-02", strPtr("2024-01-01"), nil, intPtr(100), strPtr("CC001")),
		},
		total: 250,
	}
	svc := NewQuarantineService(repo, nil, nil, QuarantineServiceConfig{})

	resp := svc.List(context.Background(), dto.QuarantineFilter{Limit: 100, Offset: 0})
	assert.Equal(t, 250, resp.TotalCount)
	assert.Equal(t, 2, resp.FilteredCount)
	assert.Len(t, resp.Records, 2)
	assert.Equal(t, 1, resp.ViolationTypeCounts["PAYMENT_DATE"])
	assert.Equal(t, 1, resp.ViolationTypeCounts["BALANCE"])
	assert.Equal(t, 0, resp.ViolationTypeCounts["COST_CENTER"])
}

func TestQuarantineServiceListFilterNarrowsPageOnly(t *testing.T) {
	repo := &quarantineReaderStub{
		page: []models.QuarantineRecord{
			quarantineRecord(1, "2024-01-01", strPtr("2019-01-01"), intPtr(100), intPtr(100), strPtr("CC001")),
			quarantineRecord(2, "2024-01-02", strPtr("2024-01-01"), nil, intPtr(100), strPtr("CC001")),
			quarantineRecord(3, "2024-01-03", strPtr("2018-06-01"), intPtr(100), intPtr(100), strPtr("CC001")),
		},
		total: 500,
	}
	svc := NewQuarantineService(repo, nil, nil, QuarantineServiceConfig{})

	vt := models.ViolationPaymentDate
	resp := svc.List(context.Background(), dto.QuarantineFilter{ViolationType: &vt, Limit: 100})
	assert.Equal(t, 500, resp.TotalCount)
	assert.Equal(t, 2, resp.FilteredCount)
	require.Len(t, resp.Records, 2)
	for _, rec := range resp.Records {
		assert.True(t, rec.HasViolation(models.ViolationPaymentDate))
	}
	// The count map covers the whole fetched page, not just the narrowed records.
	assert.Equal(t, 2, resp.ViolationTypeCounts["PAYMENT_DATE"])
	assert.Equal(t, 1, resp.ViolationTypeCounts["BALANCE"])
}

func TestQuarantineServiceListDegradesOnStorageFailure(t *testing.T) {
	repo := &quarantineReaderStub{pageErr: errors.New("warehouse offline")}
	svc := NewQuarantineService(repo, nil, nil, QuarantineServiceConfig{})

	resp := svc.List(context.Background(), dto.QuarantineFilter{Limit: 100})
	assert.Empty(t, resp.Records)
	assert.Zero(t, resp.TotalCount)
	assert.Zero(t, resp.FilteredCount)
	assert.Equal(t, map[string]int{"PAYMENT_DATE": 0, "BALANCE": 0, "COST_CENTER": 0}, resp.ViolationTypeCounts)
}

func TestQuarantineServiceCountsScanWholeTable(t *testing.T) {
	repo := &quarantineReaderStub{
		// Page shows a single violation; the full table holds more.
		page: []models.QuarantineRecord{
			quarantineRecord(1, "2024-01-01", strPtr("2019-01-01"), intPtr(100), intPtr(100), strPtr("CC001")),
		},
		all: []models.QuarantineRecord{
			quarantineRecord(1, "2024-01-01", strPtr("2019-01-01"), intPtr(100), intPtr(100), strPtr("CC001")),
			quarantineRecord(2, "2024-01-02", strPtr("2019-02-01"), intPtr(100), intPtr(100), strPtr("CC001")),
			quarantineRecord(3, "2024-01-03", strPtr("2019-03-01"), nil, intPtr(100), nil),
		},
		total: 3,
	}
	svc := NewQuarantineService(repo, nil, nil, QuarantineServiceConfig{})

	pageResp := svc.List(context.Background(), dto.QuarantineFilter{Limit: 1})
	tableCounts := svc.CountsByViolationType(context.Background())

	assert.Equal(t, 1, pageResp.ViolationTypeCounts["PAYMENT_DATE"])
	assert.Equal(t, 3, tableCounts["PAYMENT_DATE"])
	assert.Greater(t, tableCounts["PAYMENT_DATE"], pageResp.ViolationTypeCounts["PAYMENT_DATE"])
}

func TestQuarantineServiceCountsDegradeToZeroOnFailure(t *testing.T) {
	repo := &quarantineReaderStub{allErr: errors.New("warehouse offline")}
	svc := NewQuarantineService(repo, nil, nil, QuarantineServiceConfig{})

	counts := svc.CountsByViolationType(context.Background())
	assert.Equal(t, map[string]int{"PAYMENT_DATE": 0, "BALANCE": 0, "COST_CENTER": 0}, counts)
}

func TestQuarantineServiceCountsCacheHitSkipsScan(t *testing.T) {
	repo := &quarantineReaderStub{}
	cache := &cacheStub{values: map[string][]byte{countsCacheKey: []byte(`cached`)}}
	svc := NewQuarantineService(repo, cache, nil, QuarantineServiceConfig{})

	counts := svc.CountsByViolationType(context.Background())
	assert.Equal(t, 7, counts["PAYMENT_DATE"])
	assert.Zero(t, repo.allCalls)
}

func TestQuarantineServiceCountsCacheMissScansAndWrites(t *testing.T) {
	repo := &quarantineReaderStub{
		all: []models.QuarantineRecord{
			quarantineRecord(1, "2024-01-01", strPtr("2024-01-01"), intPtr(100), intPtr(100), nil),
		},
	}
	cache := &cacheStub{}
	svc := NewQuarantineService(repo, cache, nil, QuarantineServiceConfig{})

	counts := svc.CountsByViolationType(context.Background())
	assert.Equal(t, 1, counts["COST_CENTER"])
	assert.Equal(t, 1, repo.allCalls)
	assert.Equal(t, 1, cache.sets)
}
