package fees

import "context"

// ObligationRepository persists computed obligations. Uniqueness per
// (household, period) is maintained by the upsert, not by the storage layer.
type ObligationRepository interface {
	// UpsertComputed creates the obligation when absent, otherwise
	// overwrites amount and covered months in place, keeping the collector
	// field untouched.
	UpsertComputed(ctx context.Context, obligation *Obligation) error
	GetByHouseholdPeriod(ctx context.Context, householdID, periodID string) (*Obligation, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Obligation, error)
	ListByPeriod(ctx context.Context, periodID string) ([]Obligation, error)
	// SetCollector records the collector on an existing obligation. The
	// field survives later recalculations.
	SetCollector(ctx context.Context, householdID, periodID, collector string) error
	// DeleteAllForHousehold removes every obligation of the household.
	// Deleting a household with no obligations is a no-op.
	DeleteAllForHousehold(ctx context.Context, householdID string) error
	// Totals aggregates obligations; an empty periodID totals everything.
	Totals(ctx context.Context, periodID string) (ObligationTotals, error)
}

// ObligationTotals aggregates the obligation side of the ledger.
type ObligationTotals struct {
	TotalAmount        float64
	Count              int
	DistinctHouseholds int
}

// PaymentRepository persists manual collection records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	ListByPeriod(ctx context.Context, periodID string) ([]Payment, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Payment, error)
	// SumCollected totals payments; an empty periodID totals everything.
	SumCollected(ctx context.Context, periodID string) (float64, error)
	// CountDistinctHouseholds counts households with at least one payment.
	CountDistinctHouseholds(ctx context.Context, periodID string) (int, error)
}
