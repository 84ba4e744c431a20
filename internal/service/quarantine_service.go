package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/loanops/quarantine-api/internal/dto"
	"github.com/loanops/quarantine-api/internal/models"
	appErrors "github.com/loanops/quarantine-api/pkg/errors"
)

type quarantineReader interface {
	SelectPage(ctx context.Context, limit, offset int) ([]models.QuarantineRecord, error)
	SelectAll(ctx context.Context) ([]models.QuarantineRecord, error)
	CountAll(ctx context.Context) (int, error)
}

type countsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const countsCacheKey = "quarantine:violation_counts"

// QuarantineServiceConfig tunes caching of the table-scoped counts.
type QuarantineServiceConfig struct {
	CountsCacheTTL time.Duration
}

// QuarantineService is the read side: paginated listing with violation
// classification and the two distinct counting paths (page-scoped and
// table-scoped).
type QuarantineService struct {
	repo   quarantineReader
	cache  countsCache
	logger *zap.Logger
	cfg    QuarantineServiceConfig
}

// NewQuarantineService constructs the service. The cache is optional.
func NewQuarantineService(repo quarantineReader, cache countsCache, logger *zap.Logger, cfg QuarantineServiceConfig) *QuarantineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CountsCacheTTL <= 0 {
		cfg.CountsCacheTTL = 5 * time.Minute
	}
	return &QuarantineService{repo: repo, cache: cache, logger: logger, cfg: cfg}
}

// List returns one page of quarantine records with page-scoped violation
// statistics.
//
// Violation-type filtering narrows the already-fetched page, not the table:
// a filtered page can hold fewer than limit records even when more matches
// exist beyond it. The count map is computed over the whole fetched page,
// before narrowing. Storage failures degrade to an empty zero-valued
// response instead of propagating.
func (s *QuarantineService) List(ctx context.Context, filter dto.QuarantineFilter) *dto.QuarantineResponse {
	records, err := s.repo.SelectPage(ctx, filter.Limit, filter.Offset)
	if err != nil {
		s.logger.Error("failed to fetch quarantine page", zap.Error(err))
		return dto.EmptyQuarantineResponse()
	}
	totalCount, err := s.repo.CountAll(ctx)
	if err != nil {
		s.logger.Error("failed to count quarantine rows", zap.Error(err))
		return dto.EmptyQuarantineResponse()
	}

	counts := make(map[string]int, 3)
	for _, vt := range models.AllViolationTypes() {
		counts[string(vt)] = 0
	}
	for _, rec := range records {
		for _, vt := range rec.ViolationTypes {
			counts[string(vt)]++
		}
	}

	filtered := records
	if filter.ViolationType != nil {
		filtered = make([]models.QuarantineRecord, 0, len(records))
		for _, rec := range records {
			if rec.HasViolation(*filter.ViolationType) {
				filtered = append(filtered, rec)
			}
		}
	}
	if filtered == nil {
		filtered = []models.QuarantineRecord{}
	}

	return &dto.QuarantineResponse{
		Records:             filtered,
		TotalCount:          totalCount,
		FilteredCount:       len(filtered),
		ViolationTypeCounts: counts,
	}
}

// CountsByViolationType scans the entire quarantine table and counts
// violations per constraint. This intentionally answers a different question
// than List's page-scoped map; the two must not be unified. Results are
// cached briefly because the scan is unpaginated.
func (s *QuarantineService) CountsByViolationType(ctx context.Context) map[string]int {
	if s.cache != nil {
		cached := map[string]int{}
		if err := s.cache.Get(ctx, countsCacheKey, &cached); err == nil {
			return cached
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("violation counts cache read failed", zap.Error(err))
		}
	}

	counts := make(map[string]int, 3)
	for _, vt := range models.AllViolationTypes() {
		counts[string(vt)] = 0
	}

	records, err := s.repo.SelectAll(ctx)
	if err != nil {
		s.logger.Error("failed to scan quarantine table for counts", zap.Error(err))
		return counts
	}
	for _, rec := range records {
		for _, vt := range rec.ViolationTypes {
			counts[string(vt)]++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, countsCacheKey, counts, s.cfg.CountsCacheTTL); err != nil {
			s.logger.Warn("violation counts cache write failed", zap.Error(err))
		}
	}
	return counts
}
