/*
compute.go - Interest computation

PURPOSE:
  Pure arithmetic: given a balance in signed integer cents and an annual
  nominal rate, compute the interest accrued over one month.

CONVENTION (the single policy for this system):
  Compound monthly rate:

    monthlyRate = (1 + annualRate)^(1/12) - 1
    amount      = round(balance * monthlyRate)

  Rounding is to the nearest cent, ties AWAY FROM ZERO (decimal.Round).

  The compound convention is invariant to month length: February and July
  accrue the same rate, which matches standard mortgage compounding and keeps
  the historical books comparable. Day-count conventions (actual/365,
  30/360) are deliberately NOT implemented - mixing conventions across
  periods would corrupt comparability of historical accrual records.

PRECISION:
  The fractional exponent is computed in float64 (decimal has no fractional
  Pow); the multiply and round happen in decimal. Float64 carries ~15
  significant digits, far beyond what a monthly rate needs.

SEE ALSO:
  - engine.go: Feeds snapshot balances through Interest
*/
package accrual

import (
	"math"

	"github.com/shopspring/decimal"
)

// MonthlyRate converts an annual nominal rate (decimal fraction, e.g. 0.034)
// to the equivalent compound monthly rate.
func MonthlyRate(annualRate float64) decimal.Decimal {
	return decimal.NewFromFloat(math.Pow(1+annualRate, 1.0/12) - 1)
}

// Interest computes one month of interest on a balance, in signed integer
// cents. Pure and deterministic: same inputs always yield the same output.
// Negative balances (credit) and zero rates produce correctly signed or zero
// results; no validation beyond type is applied.
func Interest(balanceCents int64, annualRate float64) int64 {
	amount := decimal.NewFromInt(balanceCents).Mul(MonthlyRate(annualRate))
	return amount.Round(0).IntPart()
}
