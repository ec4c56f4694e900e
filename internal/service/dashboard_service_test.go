package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

type fakeDashboardRepo struct {
	total    int64
	statuses map[string]int64
	programs map[string]int64
	revenue  float64
	err      error
}

func (f *fakeDashboardRepo) CountStudents(context.Context) (int64, error) {
	return f.total, f.err
}

func (f *fakeDashboardRepo) CountByStatus(context.Context) (map[string]int64, error) {
	return f.statuses, f.err
}

func (f *fakeDashboardRepo) ProgramCounts(context.Context) (map[string]int64, error) {
	return f.programs, f.err
}

func (f *fakeDashboardRepo) ApprovedRevenue(context.Context) (float64, error) {
	return f.revenue, f.err
}

func TestDashboardServiceSummary(t *testing.T) {
	repo := &fakeDashboardRepo{
		total:    8,
		statuses: map[string]int64{"approved": 5, "pending_payment": 3},
		programs: map[string]int64{"jamb": 6, "waec": 2},
		revenue:  40000,
	}
	svc := NewDashboardService(repo, nil, nil, 0)
	generated := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return generated }

	summary, hit, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(8), summary.TotalStudents)
	assert.Equal(t, float64(40000), summary.ApprovedRevenue)
	assert.Equal(t, generated, summary.GeneratedAt)

	// known program codes come first, in canonical order
	require.Len(t, summary.Programs, 4)
	assert.Equal(t, "jamb", summary.Programs[0].Program)
	assert.Equal(t, int64(6), summary.Programs[0].Count)
	assert.Equal(t, float64(75), summary.Programs[0].Percentage)
	assert.Equal(t, "waec", summary.Programs[1].Program)
	assert.Equal(t, float64(25), summary.Programs[1].Percentage)
	assert.Equal(t, "post_utme", summary.Programs[2].Program)
	assert.Equal(t, int64(0), summary.Programs[2].Count)
}

func TestDashboardServiceSummaryStoreFailure(t *testing.T) {
	repo := &fakeDashboardRepo{err: errors.New("timeout")}
	svc := NewDashboardService(repo, nil, nil, 0)

	_, _, err := svc.Summary(context.Background())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStore.Code, appErrors.FromError(err).Code)
}

func TestProgramBreakdownEmptyCollection(t *testing.T) {
	breakdown := programBreakdown(map[string]int64{}, 0)

	require.Len(t, breakdown, 4)
	for _, entry := range breakdown {
		assert.Equal(t, int64(0), entry.Count)
		assert.Equal(t, float64(0), entry.Percentage)
	}
}

func TestProgramBreakdownStrayCode(t *testing.T) {
	breakdown := programBreakdown(map[string]int64{"jamb": 1, "alevels": 1}, 2)

	require.Len(t, breakdown, 5)
	assert.Equal(t, "alevels", breakdown[4].Program)
	assert.Equal(t, int64(1), breakdown[4].Count)
	assert.Equal(t, float64(50), breakdown[4].Percentage)
}
