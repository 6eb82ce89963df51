package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	fees "household-registry/internal/fees/domain"
)

// ObligationRepository is an in-memory fee ledger for tests.
type ObligationRepository struct {
	mu   sync.RWMutex
	data map[string]fees.Obligation
}

// NewObligationRepository constructs a repository.
func NewObligationRepository() *ObligationRepository {
	return &ObligationRepository{data: make(map[string]fees.Obligation)}
}

func ledgerKey(householdID, periodID string) string {
	return householdID + "|" + periodID
}

// UpsertComputed writes the computed fields, creating the row when absent
// and preserving the collector on update.
func (r *ObligationRepository) UpsertComputed(_ context.Context, obligation *fees.Obligation) error {
	if obligation == nil {
		return errors.New("obligation repo: nil obligation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey(obligation.HouseholdID, obligation.PeriodID)
	if existing, ok := r.data[key]; ok {
		existing.Amount = obligation.Amount
		existing.CoveredMonths = append([]int(nil), obligation.CoveredMonths...)
		existing.UpdatedAt = obligation.UpdatedAt
		r.data[key] = existing
		return nil
	}
	stored := *obligation
	stored.CoveredMonths = append([]int(nil), obligation.CoveredMonths...)
	r.data[key] = stored
	return nil
}

// GetByHouseholdPeriod loads one obligation; returns nil when absent.
func (r *ObligationRepository) GetByHouseholdPeriod(_ context.Context, householdID, periodID string) (*fees.Obligation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obligation, ok := r.data[ledgerKey(householdID, periodID)]
	if !ok {
		return nil, nil
	}
	copy := obligation
	return &copy, nil
}

// ListByHousehold returns the household's obligations.
func (r *ObligationRepository) ListByHousehold(_ context.Context, householdID string) ([]fees.Obligation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Obligation
	for _, obligation := range r.data {
		if obligation.HouseholdID == householdID {
			result = append(result, obligation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PeriodID < result[j].PeriodID })
	return result, nil
}

// ListByPeriod returns every obligation against a period.
func (r *ObligationRepository) ListByPeriod(_ context.Context, periodID string) ([]fees.Obligation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Obligation
	for _, obligation := range r.data {
		if obligation.PeriodID == periodID {
			result = append(result, obligation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].HouseholdID < result[j].HouseholdID })
	return result, nil
}

// SetCollector stamps the collector onto an existing obligation.
func (r *ObligationRepository) SetCollector(_ context.Context, householdID, periodID, collector string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey(householdID, periodID)
	obligation, ok := r.data[key]
	if !ok {
		return fees.ErrObligationNotFound
	}
	obligation.Collector = collector
	r.data[key] = obligation
	return nil
}

// DeleteAllForHousehold removes every obligation of the household.
func (r *ObligationRepository) DeleteAllForHousehold(_ context.Context, householdID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, obligation := range r.data {
		if obligation.HouseholdID == householdID {
			delete(r.data, key)
		}
	}
	return nil
}

// Totals aggregates obligations; an empty periodID totals everything.
func (r *ObligationRepository) Totals(_ context.Context, periodID string) (fees.ObligationTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var totals fees.ObligationTotals
	households := make(map[string]bool)
	for _, obligation := range r.data {
		if periodID != "" && obligation.PeriodID != periodID {
			continue
		}
		totals.Count++
		totals.TotalAmount += obligation.Amount
		households[obligation.HouseholdID] = true
	}
	totals.DistinctHouseholds = len(households)
	return totals, nil
}

// PaymentRepository is an in-memory payment store for tests.
type PaymentRepository struct {
	mu   sync.RWMutex
	data []fees.Payment
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

// Create appends a payment record.
func (r *PaymentRepository) Create(_ context.Context, payment *fees.Payment) error {
	if payment == nil {
		return errors.New("payment repo: nil payment")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, *payment)
	return nil
}

// ListByPeriod returns payments against a period.
func (r *PaymentRepository) ListByPeriod(_ context.Context, periodID string) ([]fees.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Payment
	for _, payment := range r.data {
		if payment.PeriodID == periodID {
			result = append(result, payment)
		}
	}
	return result, nil
}

// ListByHousehold returns a household's payments.
func (r *PaymentRepository) ListByHousehold(_ context.Context, householdID string) ([]fees.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Payment
	for _, payment := range r.data {
		if payment.HouseholdID == householdID {
			result = append(result, payment)
		}
	}
	return result, nil
}

// SumCollected totals payments; an empty periodID totals everything.
func (r *PaymentRepository) SumCollected(_ context.Context, periodID string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0.0
	for _, payment := range r.data {
		if periodID == "" || payment.PeriodID == periodID {
			total += payment.Amount
		}
	}
	return total, nil
}

// CountDistinctHouseholds counts households with at least one payment.
func (r *PaymentRepository) CountDistinctHouseholds(_ context.Context, periodID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for _, payment := range r.data {
		if periodID == "" || payment.PeriodID == periodID {
			seen[payment.HouseholdID] = true
		}
	}
	return len(seen), nil
}
