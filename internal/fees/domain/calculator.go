package fees

import (
	"math"

	feeperiod "household-registry/internal/feeperiod/domain"
)

// DiscountPolicy holds the tunable parameters of the flat household discount.
// A single reduction applies when any active member qualifies; qualifying
// members never stack.
type DiscountPolicy struct {
	Rate            float64 `yaml:"rate"`
	ElderlyAge      int     `yaml:"elderly_age"`
	StudentAge      int     `yaml:"student_age"`
	MinorUnitDigits int     `yaml:"minor_unit_digits"`
}

// DefaultDiscountPolicy returns the standard policy: a 20% reduction for
// households with an elderly (60+) or student (22 and under) member, amounts
// kept in whole currency units.
func DefaultDiscountPolicy() DiscountPolicy {
	return DiscountPolicy{Rate: 0.2, ElderlyAge: 60, StudentAge: 22, MinorUnitDigits: 0}
}

// Breakdown reports how a fee amount was derived.
type Breakdown struct {
	UnitRate        float64 `json:"unit_rate"`
	ActiveMembers   int     `json:"active_members"`
	CoveredMonths   []int   `json:"covered_months"`
	BillingMode     string  `json:"billing_mode"`
	BaseAmount      float64 `json:"base_amount"`
	DiscountApplied bool    `json:"discount_applied"`
	Amount          float64 `json:"amount"`
}

// Calculator computes fee obligations. It performs no I/O and is safe for
// concurrent use; identical inputs always yield identical output.
type Calculator struct {
	policy DiscountPolicy
}

// NewCalculator constructs a calculator with the given policy.
func NewCalculator(policy DiscountPolicy) *Calculator {
	if policy.Rate <= 0 || policy.Rate >= 1 {
		policy.Rate = DefaultDiscountPolicy().Rate
	}
	if policy.ElderlyAge <= 0 {
		policy.ElderlyAge = DefaultDiscountPolicy().ElderlyAge
	}
	if policy.StudentAge <= 0 {
		policy.StudentAge = DefaultDiscountPolicy().StudentAge
	}
	if policy.MinorUnitDigits < 0 {
		policy.MinorUnitDigits = 0
	}
	return &Calculator{policy: policy}
}

// Policy returns the calculator's discount policy.
func (c *Calculator) Policy() DiscountPolicy { return c.policy }

// Compute derives the fee owed by the snapshot's household for the period.
// Per-month billing multiplies the rate by members and covered months; flat
// billing charges the rate per member once for the whole period. A single
// flat discount applies when an elderly or student member is present.
func (c *Calculator) Compute(snapshot HouseholdSnapshot, period *feeperiod.FeePeriod) (Breakdown, error) {
	if snapshot.HouseholdID == "" {
		return Breakdown{}, ErrNilSnapshot
	}
	if period == nil {
		return Breakdown{}, ErrNilPeriod
	}
	months := period.CoveredMonths()
	breakdown := Breakdown{
		UnitRate:      period.UnitRate,
		ActiveMembers: snapshot.ActiveMembers,
		CoveredMonths: months,
		BillingMode:   period.BillingMode,
	}
	switch period.BillingMode {
	case feeperiod.BillingPerMonth:
		if len(months) == 0 {
			return Breakdown{}, ErrNoCoveredMonths
		}
		breakdown.BaseAmount = period.UnitRate * float64(snapshot.ActiveMembers) * float64(len(months))
	case feeperiod.BillingFlatPerPeriod:
		breakdown.BaseAmount = period.UnitRate * float64(snapshot.ActiveMembers)
	default:
		return Breakdown{}, feeperiod.ErrInvalidBillingMode
	}
	breakdown.DiscountApplied = snapshot.ElderlyPresent || snapshot.StudentPresent
	amount := breakdown.BaseAmount
	if breakdown.DiscountApplied {
		amount *= 1 - c.policy.Rate
	}
	breakdown.Amount = roundHalfUp(amount, c.policy.MinorUnitDigits)
	return breakdown, nil
}

// roundHalfUp rounds to the given number of decimal digits, ties away from zero.
func roundHalfUp(value float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(value*scale) / scale
}
