package accrual_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/accrual-engine/accrual"
)

// =============================================================================
// CURSOR TESTS
// =============================================================================

func TestMonths_BackfillRange_AscendingByOneMonth(t *testing.T) {
	// GIVEN: An explicit start in May 2024 and a "today" in March 2025
	// WHEN: Enumerating periods
	// THEN: Every month from 2024-05 through 2025-03 appears, strictly
	//       ascending by one calendar month

	start := accrual.NewTimePoint(2024, time.May, 14)
	today := accrual.NewTimePoint(2025, time.March, 3)

	periods := accrual.Months(&start, today)

	require.Len(t, periods, 11)
	assert.Equal(t, "2024-05", periods[0].String())
	assert.Equal(t, "2025-03", periods[len(periods)-1].String())

	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].Next(), periods[i],
			"consecutive periods must differ by exactly one month")
	}
}

func TestMonths_StartBasisTruncatedToMonth(t *testing.T) {
	// GIVEN: A start date in the middle of a month
	// WHEN: Enumerating periods
	// THEN: The first period is the first day of that month

	start := accrual.NewTimePoint(2024, time.February, 29)
	today := accrual.NewTimePoint(2024, time.April, 1)

	periods := accrual.Months(&start, today)

	require.Len(t, periods, 3)
	assert.Equal(t, accrual.NewTimePoint(2024, time.February, 1), periods[0].Start)
	assert.Equal(t, 1, periods[0].Start.Day())
}

func TestMonths_NilStartBasis_CurrentMonthOnly(t *testing.T) {
	// GIVEN: No explicit start date
	// WHEN: Enumerating periods
	// THEN: Exactly today's month is produced

	today := accrual.NewTimePoint(2025, time.August, 30)

	periods := accrual.Months(nil, today)

	require.Len(t, periods, 1)
	assert.Equal(t, "2025-08", periods[0].String())
}

func TestMonths_StartAfterToday_Empty(t *testing.T) {
	// GIVEN: A start month strictly after today's month
	// WHEN: Enumerating periods
	// THEN: Zero periods - nothing to do is not an error

	start := accrual.NewTimePoint(2025, time.September, 1)
	today := accrual.NewTimePoint(2025, time.August, 30)

	periods := accrual.Months(&start, today)

	assert.Empty(t, periods)
}

func TestMonths_StartInTodaysMonth_SinglePeriod(t *testing.T) {
	// GIVEN: A start date inside today's month
	// WHEN: Enumerating periods
	// THEN: Exactly one period, inclusive of the current month

	start := accrual.NewTimePoint(2025, time.August, 2)
	today := accrual.NewTimePoint(2025, time.August, 30)

	periods := accrual.Months(&start, today)

	require.Len(t, periods, 1)
	assert.Equal(t, accrual.PeriodOf(today), periods[0])
}

// =============================================================================
// PERIOD PROPERTY TESTS
// =============================================================================

func TestPeriod_LastDay(t *testing.T) {
	tests := []struct {
		name  string
		month accrual.TimePoint
		want  int
	}{
		{"january", accrual.NewTimePoint(2024, time.January, 1), 31},
		{"leap february", accrual.NewTimePoint(2024, time.February, 1), 29},
		{"non-leap february", accrual.NewTimePoint(2025, time.February, 1), 28},
		{"april", accrual.NewTimePoint(2024, time.April, 1), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := accrual.Period{Start: tt.month}
			assert.Equal(t, tt.want, p.LastDay().Day())
		})
	}
}

func TestPeriod_Next_CrossesYearBoundary(t *testing.T) {
	p := accrual.Period{Start: accrual.NewTimePoint(2024, time.December, 1)}

	next := p.Next()

	assert.Equal(t, accrual.NewTimePoint(2025, time.January, 1), next.Start)
}
