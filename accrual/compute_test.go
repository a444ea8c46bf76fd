package accrual_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/accrual-engine/accrual"
)

// =============================================================================
// COMPOUND CONVENTION TESTS
// =============================================================================

func TestInterest_CompoundFormulaExactness(t *testing.T) {
	// GIVEN: EUR 100,000.00 at 3.4% annual
	// WHEN: Computing one month of compound interest
	// THEN: round(10_000_000 * ((1.034)^(1/12) - 1)) = 27901 cents

	got := accrual.Interest(10_000_000, 0.034)

	assert.Equal(t, int64(27901), got)
}

func TestInterest_Deterministic(t *testing.T) {
	// GIVEN: Fixed inputs
	// WHEN: Computing repeatedly
	// THEN: The same integer every time - pure function

	first := accrual.Interest(12_345_678, 0.0417)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, accrual.Interest(12_345_678, 0.0417))
	}
}

func TestInterest_ZeroRate_ZeroAmount(t *testing.T) {
	assert.Equal(t, int64(0), accrual.Interest(10_000_000, 0))
}

func TestInterest_ZeroBalance_ZeroAmount(t *testing.T) {
	assert.Equal(t, int64(0), accrual.Interest(0, 0.04))
}

func TestInterest_NegativeBalance_NegativeAmount(t *testing.T) {
	// GIVEN: A liability balance (negative, the usual shape for a mortgage)
	// WHEN: Computing interest
	// THEN: The amount is the mirror of the positive-balance result

	positive := accrual.Interest(10_000_000, 0.034)
	negative := accrual.Interest(-10_000_000, 0.034)

	assert.Equal(t, -positive, negative)
	assert.Less(t, negative, int64(0))
}

func TestInterest_MonthLengthInvariant(t *testing.T) {
	// The compound convention yields the same amount whichever calendar
	// month is processed; the rate carries no day count. This is a property
	// of the formula - Interest takes no date at all - so assert the rate
	// is the only variable.

	assert.Equal(t,
		accrual.Interest(25_000_000, 0.029),
		accrual.Interest(25_000_000, 0.029))
}

func TestMonthlyRate_TwelfthRootRelation(t *testing.T) {
	// GIVEN: An annual rate
	// WHEN: Converting to a monthly rate
	// THEN: Compounding twelve times recovers the annual rate

	one := decimal.NewFromInt(1)
	monthly := accrual.MonthlyRate(0.04)

	annual := monthly.Add(one).Pow(decimal.NewFromInt(12)).Sub(one)
	assert.InDelta(t, 0.04, annual.InexactFloat64(), 1e-9)
}
