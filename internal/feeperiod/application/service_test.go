package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"household-registry/internal/auth"
	feeperiod "household-registry/internal/feeperiod/domain"
	"household-registry/internal/feeperiod/infrastructure/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(memory.NewPeriodRepository(), fixedClock{at: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestCreateFeePeriod(t *testing.T) {
	service := newService(t)
	period, err := service.Create(context.Background(), auth.RoleAccountant, CreateRequest{
		Name:        "Q4 sanitation",
		Category:    feeperiod.CategoryMandatory,
		StartDate:   "2025-10-01",
		EndDate:     "2025-12-31",
		UnitRate:    50000,
		BillingMode: feeperiod.BillingPerMonth,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if period.ID == "" || period.Name != "Q4 sanitation" {
		t.Fatalf("unexpected period %+v", period)
	}

	loaded, err := service.GetByID(context.Background(), period.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.UnitRate != 50000 {
		t.Fatalf("expected rate persisted, got %v", loaded.UnitRate)
	}
}

func TestCreateFeePeriodRejectsInvalidInput(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, auth.RoleAccountant, CreateRequest{
		Name: "bad dates", Category: feeperiod.CategoryMandatory,
		StartDate: "2025-12-01", EndDate: "2025-10-01",
		UnitRate: 1, BillingMode: feeperiod.BillingPerMonth,
	})
	if !errors.Is(err, feeperiod.ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}

	_, err = service.Create(ctx, auth.RoleAccountant, CreateRequest{
		Name: "free mandatory", Category: feeperiod.CategoryMandatory,
		StartDate: "2025-10-01", EndDate: "2025-12-31",
		UnitRate: 0, BillingMode: feeperiod.BillingPerMonth,
	})
	if !errors.Is(err, feeperiod.ErrNonPositiveRate) {
		t.Fatalf("expected ErrNonPositiveRate, got %v", err)
	}

	_, err = service.Create(ctx, auth.RoleAccountant, CreateRequest{
		Name: "garbled", Category: feeperiod.CategoryMandatory,
		StartDate: "not-a-date", EndDate: "2025-12-31",
		UnitRate: 1, BillingMode: feeperiod.BillingPerMonth,
	})
	if !errors.Is(err, feeperiod.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestCreateFeePeriodRequiresAccountant(t *testing.T) {
	service := newService(t)
	_, err := service.Create(context.Background(), auth.RoleViewer, CreateRequest{
		Name: "q4", Category: feeperiod.CategoryMandatory,
		StartDate: "2025-10-01", EndDate: "2025-12-31",
		UnitRate: 1, BillingMode: feeperiod.BillingPerMonth,
	})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeleteFeePeriodRequiresAdmin(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	period, err := service.Create(ctx, auth.RoleAccountant, CreateRequest{
		Name: "q4", Category: feeperiod.CategoryMandatory,
		StartDate: "2025-10-01", EndDate: "2025-12-31",
		UnitRate: 1, BillingMode: feeperiod.BillingPerMonth,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Delete(ctx, auth.RoleAccountant, period.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for accountant, got %v", err)
	}
	if err := service.Delete(ctx, auth.RoleAdmin, period.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := service.GetByID(ctx, period.ID); !errors.Is(err, feeperiod.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound after delete, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	service := newService(t)
	if _, err := service.GetByID(context.Background(), "period-missing"); !errors.Is(err, feeperiod.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}
