package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/firstclass-tutorials/fct-api/internal/dto"
	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

const dashboardCacheKey = "dash:summary"

type dashboardRepository interface {
	CountStudents(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	ProgramCounts(ctx context.Context) (map[string]int64, error)
	ApprovedRevenue(ctx context.Context) (float64, error)
}

// DashboardService composes the admin overview aggregates.
type DashboardService struct {
	repo     dashboardRepository
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL, now: time.Now}
}

// Summary returns the aggregate view and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache persist failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardSummary, error) {
	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count students")
	}
	statusCounts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count statuses")
	}
	programCounts, err := s.repo.ProgramCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count programs")
	}
	revenue, err := s.repo.ApprovedRevenue(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to sum revenue")
	}

	return &dto.DashboardSummary{
		TotalStudents:   total,
		StatusCounts:    statusCounts,
		Programs:        programBreakdown(programCounts, total),
		ApprovedRevenue: revenue,
		GeneratedAt:     s.now().UTC(),
	}, nil
}

// programBreakdown orders the known program codes first, then any stray codes
// present in the data, with percentages relative to the total student count.
func programBreakdown(counts map[string]int64, total int64) []dto.ProgramBreakdown {
	seen := make(map[string]bool, len(models.ProgramCodes))
	ordered := make([]string, 0, len(counts))
	for _, code := range models.ProgramCodes {
		seen[code] = true
		ordered = append(ordered, code)
	}
	extras := make([]string, 0)
	for code := range counts {
		if !seen[code] {
			extras = append(extras, code)
		}
	}
	sort.Strings(extras)
	ordered = append(ordered, extras...)

	breakdown := make([]dto.ProgramBreakdown, 0, len(ordered))
	for _, code := range ordered {
		count := counts[code]
		if count == 0 && !seen[code] {
			continue
		}
		var pct float64
		if total > 0 {
			pct = math.Round(float64(count)/float64(total)*10000) / 100
		}
		breakdown = append(breakdown, dto.ProgramBreakdown{
			Program:    code,
			Count:      count,
			Percentage: pct,
		})
	}
	return breakdown
}
