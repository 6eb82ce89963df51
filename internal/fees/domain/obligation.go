package fees

import "time"

// Obligation is the computed ledger entry for one (household, period) pair.
// At most one exists per pair; recalculation overwrites the computed fields
// in place and leaves collector details from the payment flow untouched.
type Obligation struct {
	ID            string
	HouseholdID   string
	PeriodID      string
	Amount        float64
	CoveredMonths []int
	Collector     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate enforces obligation invariants.
func (o *Obligation) Validate() error {
	if o == nil || o.ID == "" {
		return ErrEmptyObligationID
	}
	if o.HouseholdID == "" {
		return ErrEmptyHouseholdID
	}
	if o.PeriodID == "" {
		return ErrEmptyPeriodID
	}
	if o.Amount < 0 {
		return ErrNegativeAmount
	}
	seen := make(map[int]bool, len(o.CoveredMonths))
	for _, month := range o.CoveredMonths {
		if month < 1 || month > 12 || seen[month] {
			return ErrInvalidMonth
		}
		seen[month] = true
	}
	return nil
}

// Payment is a manual, append-only collection record. Payments are distinct
// from the computed obligation and are never touched by recalculation.
type Payment struct {
	ID          string
	HouseholdID string
	PeriodID    string
	Amount      float64
	Collector   string
	Note        string
	PaidAt      time.Time
}

// Validate enforces payment invariants.
func (p *Payment) Validate() error {
	if p == nil || p.ID == "" {
		return ErrEmptyObligationID
	}
	if p.HouseholdID == "" {
		return ErrEmptyHouseholdID
	}
	if p.PeriodID == "" {
		return ErrEmptyPeriodID
	}
	if p.Amount <= 0 {
		return ErrNonPositivePayment
	}
	if p.Collector == "" {
		return ErrEmptyCollector
	}
	return nil
}

// PeriodStats aggregates collections for reporting.
type PeriodStats struct {
	PeriodID                  string  `json:"period_id,omitempty"`
	TotalObligated            float64 `json:"total_obligated"`
	TotalCollected            float64 `json:"total_collected"`
	ObligationCount           int     `json:"obligation_count"`
	DistinctHouseholdsPaid    int     `json:"distinct_households_paid"`
	HouseholdsWithObligations int     `json:"households_with_obligations"`
}
