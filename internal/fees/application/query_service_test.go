package application

import (
	"context"
	"testing"
	"time"

	feeperiod "household-registry/internal/feeperiod/domain"
	fees "household-registry/internal/fees/domain"
	feesmem "household-registry/internal/fees/infrastructure/memory"
	"household-registry/internal/registry/application/events"
)

func newQueryFixture(t *testing.T) (*QueryService, *recalcFixture, *feesmem.PaymentRepository) {
	t.Helper()
	fixture := newRecalcFixture(t)
	payments := feesmem.NewPaymentRepository()
	query, err := NewQueryService(
		fixture.households, fixture.citizens, fixture.periods, fixture.obligations, payments,
		fees.NewCalculator(fees.DefaultDiscountPolicy()),
		fixedClock{at: fixture.now})
	if err != nil {
		t.Fatalf("new query service: %v", err)
	}
	return query, fixture, payments
}

func (f *recalcFixture) seedHousehold(t *testing.T, id string, memberBirthYears ...int) {
	t.Helper()
	f.addHousehold(t, id, memberBirthYears...)
	err := f.service.HandleHouseholdChanged(context.Background(), events.HouseholdChanged{
		EventID: "evt-" + id, HouseholdID: id, Operation: events.OpCreate, OccurredAt: f.now,
	})
	if err != nil {
		t.Fatalf("seed household %s: %v", id, err)
	}
}

func addPayment(t *testing.T, payments *feesmem.PaymentRepository, id, householdID, periodID string, amount float64, paidAt time.Time) {
	t.Helper()
	payment := &fees.Payment{
		ID: id, HouseholdID: householdID, PeriodID: periodID,
		Amount: amount, Collector: "collector-1", PaidAt: paidAt,
	}
	if err := payments.Create(context.Background(), payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}
}

func TestStatsScopedToPeriod(t *testing.T) {
	query, fixture, payments := newQueryFixture(t)
	fixture.addPeriod(t, "period-pm", 50000, feeperiod.BillingPerMonth)
	fixture.addPeriod(t, "period-flat", 20000, feeperiod.BillingFlatPerPeriod)
	fixture.seedHousehold(t, "hh-1", 1990, 1990, 1990)
	fixture.seedHousehold(t, "hh-2", 1990, 1990)
	addPayment(t, payments, "pay-1", "hh-1", "period-pm", 100000, fixture.now)
	addPayment(t, payments, "pay-2", "hh-2", "period-flat", 40000, fixture.now)

	stats, err := query.Stats(context.Background(), "period-pm")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ObligationCount != 2 || stats.HouseholdsWithObligations != 2 {
		t.Fatalf("unexpected obligation counts: %+v", stats)
	}
	if stats.TotalObligated != 750000 {
		t.Fatalf("expected 750000 obligated, got %v", stats.TotalObligated)
	}
	if stats.TotalCollected != 100000 || stats.DistinctHouseholdsPaid != 1 {
		t.Fatalf("unexpected payment aggregates: %+v", stats)
	}
}

func TestStatsAggregatesAllPeriodsWhenUnscoped(t *testing.T) {
	query, fixture, payments := newQueryFixture(t)
	fixture.addPeriod(t, "period-pm", 50000, feeperiod.BillingPerMonth)
	fixture.addPeriod(t, "period-flat", 20000, feeperiod.BillingFlatPerPeriod)
	fixture.seedHousehold(t, "hh-1", 1990, 1990, 1990)
	fixture.seedHousehold(t, "hh-2", 1990, 1990)
	addPayment(t, payments, "pay-1", "hh-1", "period-pm", 100000, fixture.now)
	addPayment(t, payments, "pay-2", "hh-2", "period-flat", 40000, fixture.now)

	stats, err := query.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ObligationCount != 4 || stats.HouseholdsWithObligations != 2 {
		t.Fatalf("unexpected obligation counts: %+v", stats)
	}
	if stats.TotalObligated != 850000 {
		t.Fatalf("expected 850000 obligated, got %v", stats.TotalObligated)
	}
	if stats.TotalCollected != 140000 || stats.DistinctHouseholdsPaid != 2 {
		t.Fatalf("unexpected payment aggregates: %+v", stats)
	}
}

func TestStatsUnknownPeriod(t *testing.T) {
	query, _, _ := newQueryFixture(t)
	if _, err := query.Stats(context.Background(), "missing"); err != feeperiod.ErrPeriodNotFound {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}
