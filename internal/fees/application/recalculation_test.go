package application

import (
	"context"
	"log"
	"os"
	"reflect"
	"testing"
	"time"

	feeperiod "household-registry/internal/feeperiod/domain"
	feeperiodmem "household-registry/internal/feeperiod/infrastructure/memory"
	fees "household-registry/internal/fees/domain"
	feesmem "household-registry/internal/fees/infrastructure/memory"
	"household-registry/internal/registry/application/events"
	registry "household-registry/internal/registry/domain"
	registrymem "household-registry/internal/registry/infrastructure/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type recalcFixture struct {
	service     *RecalculationService
	households  *registrymem.HouseholdRepository
	citizens    *registrymem.CitizenRepository
	periods     *feeperiodmem.PeriodRepository
	obligations *feesmem.ObligationRepository
	now         time.Time
}

func newRecalcFixture(t *testing.T) *recalcFixture {
	t.Helper()
	now := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	fixture := &recalcFixture{
		households:  registrymem.NewHouseholdRepository(),
		citizens:    registrymem.NewCitizenRepository(),
		periods:     feeperiodmem.NewPeriodRepository(),
		obligations: feesmem.NewObligationRepository(),
		now:         now,
	}
	service, err := NewRecalculationService(
		fixture.households, fixture.citizens, fixture.periods, fixture.obligations,
		fees.NewCalculator(fees.DefaultDiscountPolicy()),
		fixedClock{at: now},
		log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("new recalculation service: %v", err)
	}
	fixture.service = service
	return fixture
}

func (f *recalcFixture) addPeriod(t *testing.T, id string, rate float64, mode string) {
	t.Helper()
	period, err := feeperiod.NewFeePeriod(
		id, id, feeperiod.CategoryMandatory,
		time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		rate, mode)
	if err != nil {
		t.Fatalf("new period: %v", err)
	}
	if err := f.periods.Create(context.Background(), period); err != nil {
		t.Fatalf("create period: %v", err)
	}
}

func (f *recalcFixture) addHousehold(t *testing.T, id string, memberBirthYears ...int) {
	t.Helper()
	ctx := context.Background()
	household := &registry.Household{
		ID: id, Code: "code-" + id, OwnerName: "Owner " + id, Active: true,
		CreatedAt: f.now, UpdatedAt: f.now,
	}
	if err := f.households.Create(ctx, household); err != nil {
		t.Fatalf("create household: %v", err)
	}
	for i, year := range memberBirthYears {
		citizen := &registry.Citizen{
			ID:          id + "-member-" + string(rune('a'+i)),
			HouseholdID: id,
			FullName:    "Member",
			DateOfBirth: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:      registry.StatusResident,
			CreatedAt:   f.now,
			UpdatedAt:   f.now,
		}
		if err := f.citizens.Create(ctx, citizen); err != nil {
			t.Fatalf("create citizen: %v", err)
		}
	}
}

func TestHouseholdCreateBuildsObligationsForOpenPeriods(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addPeriod(t, "period-b", 20000, feeperiod.BillingFlatPerPeriod)
	f.addHousehold(t, "hh-1", 1980, 1982, 1985)

	err := f.service.HandleHouseholdChanged(context.Background(), events.HouseholdChanged{
		HouseholdID: "hh-1", Operation: events.OpCreate, OccurredAt: f.now,
	})
	if err != nil {
		t.Fatalf("handle create: %v", err)
	}

	obligations, err := f.obligations.ListByHousehold(context.Background(), "hh-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obligations) != 2 {
		t.Fatalf("expected 2 obligations, got %d", len(obligations))
	}
	if obligations[0].Amount != 450000 {
		t.Fatalf("expected per-month amount 450000, got %v", obligations[0].Amount)
	}
	if obligations[1].Amount != 60000 {
		t.Fatalf("expected flat amount 60000, got %v", obligations[1].Amount)
	}
}

func TestRecalculationIsIdempotent(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addHousehold(t, "hh-1", 1980, 1982)

	ctx := context.Background()
	if err := f.service.CreateInitialObligations(ctx, "hh-1"); err != nil {
		t.Fatalf("initial: %v", err)
	}
	first, err := f.obligations.GetByHouseholdPeriod(ctx, "hh-1", "period-a")
	if err != nil || first == nil {
		t.Fatalf("get first: %v %v", first, err)
	}

	if err := f.service.RecalculateHousehold(ctx, "hh-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	second, err := f.obligations.GetByHouseholdPeriod(ctx, "hh-1", "period-a")
	if err != nil || second == nil {
		t.Fatalf("get second: %v %v", second, err)
	}

	if first.Amount != second.Amount {
		t.Fatalf("amount changed: %v vs %v", first.Amount, second.Amount)
	}
	if !reflect.DeepEqual(first.CoveredMonths, second.CoveredMonths) {
		t.Fatalf("covered months changed: %v vs %v", first.CoveredMonths, second.CoveredMonths)
	}
}

func TestElderlyMemberTriggersDiscountOnRecalculation(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addHousehold(t, "hh-1", 1980, 1982, 1985)

	ctx := context.Background()
	if err := f.service.CreateInitialObligations(ctx, "hh-1"); err != nil {
		t.Fatalf("initial: %v", err)
	}

	// A 65 year old joins; members go from 3 to 4 and the discount kicks in.
	elder := &registry.Citizen{
		ID: "hh-1-elder", HouseholdID: "hh-1", FullName: "Elder",
		DateOfBirth: time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      registry.StatusResident,
		CreatedAt:   f.now, UpdatedAt: f.now,
	}
	if err := f.citizens.Create(ctx, elder); err != nil {
		t.Fatalf("add elder: %v", err)
	}
	err := f.service.HandleCitizenChanged(ctx, events.CitizenChanged{
		CitizenID: elder.ID, HouseholdID: "hh-1", Operation: events.OpCreate, OccurredAt: f.now,
	})
	if err != nil {
		t.Fatalf("handle citizen change: %v", err)
	}

	obligation, err := f.obligations.GetByHouseholdPeriod(ctx, "hh-1", "period-a")
	if err != nil || obligation == nil {
		t.Fatalf("get: %v %v", obligation, err)
	}
	// 50000 * 4 * 3 * 0.8
	if obligation.Amount != 480000 {
		t.Fatalf("expected 480000, got %v", obligation.Amount)
	}
}

func TestHouseholdDeleteClearsLedger(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addPeriod(t, "period-b", 20000, feeperiod.BillingFlatPerPeriod)
	f.addHousehold(t, "hh-1", 1980)

	ctx := context.Background()
	if err := f.service.CreateInitialObligations(ctx, "hh-1"); err != nil {
		t.Fatalf("initial: %v", err)
	}

	err := f.service.HandleHouseholdChanged(ctx, events.HouseholdChanged{
		HouseholdID: "hh-1", Operation: events.OpDelete, OccurredAt: f.now,
	})
	if err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	obligations, err := f.obligations.ListByHousehold(ctx, "hh-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obligations) != 0 {
		t.Fatalf("expected empty ledger, got %d obligations", len(obligations))
	}

	// Deleting again is a no-op.
	err = f.service.HandleHouseholdChanged(ctx, events.HouseholdChanged{
		HouseholdID: "hh-1", Operation: events.OpDelete, OccurredAt: f.now,
	})
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestUpsertPreservesCollector(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addHousehold(t, "hh-1", 1980)

	ctx := context.Background()
	if err := f.service.CreateInitialObligations(ctx, "hh-1"); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if err := f.obligations.SetCollector(ctx, "hh-1", "period-a", "collector-7"); err != nil {
		t.Fatalf("set collector: %v", err)
	}

	if err := f.service.RecalculateHousehold(ctx, "hh-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	obligation, err := f.obligations.GetByHouseholdPeriod(ctx, "hh-1", "period-a")
	if err != nil || obligation == nil {
		t.Fatalf("get: %v %v", obligation, err)
	}
	if obligation.Collector != "collector-7" {
		t.Fatalf("expected collector preserved, got %q", obligation.Collector)
	}
}

func TestRecalculateMissingHouseholdClearsLedger(t *testing.T) {
	f := newRecalcFixture(t)
	f.addPeriod(t, "period-a", 50000, feeperiod.BillingPerMonth)
	f.addHousehold(t, "hh-1", 1980)

	ctx := context.Background()
	if err := f.service.CreateInitialObligations(ctx, "hh-1"); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if err := f.households.Delete(ctx, "hh-1"); err != nil {
		t.Fatalf("delete household: %v", err)
	}

	if err := f.service.RecalculateHousehold(ctx, "hh-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	obligations, err := f.obligations.ListByHousehold(ctx, "hh-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obligations) != 0 {
		t.Fatalf("expected ledger cleared for missing household, got %d", len(obligations))
	}
}
