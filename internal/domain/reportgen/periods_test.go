package reportgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateMonthly(t *testing.T) {
	earliest := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	periods := EnumerateMonthly(earliest, now)
	require.Len(t, periods, 2)

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), periods[0].Start)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), periods[0].End)
	assert.Equal(t, "2026-01", periods[0].Label())

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), periods[1].Start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), periods[1].End)
	assert.Equal(t, "2026-02", periods[1].Label())
}

func TestEnumerateMonthly_CurrentMonthExcluded(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	earliest := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, EnumerateMonthly(earliest, now))
}

func TestEnumerateMonthly_YearBoundary(t *testing.T) {
	earliest := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	periods := EnumerateMonthly(earliest, now)
	require.Len(t, periods, 3)
	assert.Equal(t, "2025-11", periods[0].Label())
	assert.Equal(t, "2025-12", periods[1].Label())
	assert.Equal(t, "2026-01", periods[2].Label())
}

func TestWeeklyPeriod(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 45, 0, 0, time.UTC)

	p := WeeklyPeriod(now)
	assert.Equal(t, ReportWeekly, p.Type)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, 7, p.Window().Days())
	assert.Equal(t, "2026-03-03_2026-03-09", p.Label())
}

func TestPeriodKey(t *testing.T) {
	a := Period{Type: ReportMonthly, Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	b := Period{Type: ReportWeekly, Start: a.Start, End: a.End}
	assert.NotEqual(t, a.Key(), b.Key())
}
