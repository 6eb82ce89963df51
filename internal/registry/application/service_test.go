package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"household-registry/internal/auth"
	"household-registry/internal/registry/application/events"
	registry "household-registry/internal/registry/domain"
	"household-registry/internal/registry/infrastructure/memory"
)

type stubPublisher struct {
	published []any
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, event any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newFixture(t *testing.T) (*Service, *stubPublisher, *memory.HouseholdRepository, *memory.CitizenRepository) {
	t.Helper()
	publisher := &stubPublisher{}
	households := memory.NewHouseholdRepository()
	citizens := memory.NewCitizenRepository()
	service, err := NewService(households, citizens, publisher,
		fixedClock{at: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, publisher, households, citizens
}

func TestCreateHouseholdPublishesChange(t *testing.T) {
	service, publisher, _, _ := newFixture(t)
	household, err := service.CreateHousehold(context.Background(), auth.RoleAccountant, CreateHouseholdRequest{
		Code: "HK-001", Address: "12 Alley 3", OwnerName: "Tran Van A",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.published))
	}
	event, ok := publisher.published[0].(events.HouseholdChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", publisher.published[0])
	}
	if event.HouseholdID != household.ID || event.Operation != events.OpCreate {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestCreateHouseholdSurvivesPublishFailure(t *testing.T) {
	service, publisher, households, _ := newFixture(t)
	publisher.err = errors.New("outbox down")

	household, err := service.CreateHousehold(context.Background(), auth.RoleAccountant, CreateHouseholdRequest{
		Code: "HK-002", OwnerName: "Le Thi B",
	})
	if err != nil {
		t.Fatalf("create should not fail on publish error: %v", err)
	}
	stored, err := households.GetByID(context.Background(), household.ID)
	if err != nil || stored == nil {
		t.Fatalf("household not persisted: %v %v", stored, err)
	}
}

func TestHouseholdRoleChecks(t *testing.T) {
	service, _, _, _ := newFixture(t)
	ctx := context.Background()

	if _, err := service.CreateHousehold(ctx, auth.RoleViewer, CreateHouseholdRequest{Code: "HK-003", OwnerName: "X"}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected viewer create forbidden, got %v", err)
	}

	household, err := service.CreateHousehold(ctx, auth.RoleAccountant, CreateHouseholdRequest{Code: "HK-003", OwnerName: "X"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.DeleteHousehold(ctx, auth.RoleAccountant, household.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected accountant delete forbidden, got %v", err)
	}
	if err := service.DeleteHousehold(ctx, auth.RoleAdmin, household.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestCreateCitizenRequiresExistingHousehold(t *testing.T) {
	service, _, _, _ := newFixture(t)
	_, err := service.CreateCitizen(context.Background(), auth.RoleAccountant, CreateCitizenRequest{
		HouseholdID: "hh-missing", FullName: "Nguyen Van C", DateOfBirth: "1990-05-01",
	})
	if !errors.Is(err, registry.ErrHouseholdNotFound) {
		t.Fatalf("expected ErrHouseholdNotFound, got %v", err)
	}
}

func TestCitizenLifecyclePublishesChanges(t *testing.T) {
	service, publisher, _, citizens := newFixture(t)
	ctx := context.Background()

	household, err := service.CreateHousehold(ctx, auth.RoleAccountant, CreateHouseholdRequest{Code: "HK-004", OwnerName: "Owner"})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	citizen, err := service.CreateCitizen(ctx, auth.RoleAccountant, CreateCitizenRequest{
		HouseholdID: household.ID, FullName: "Pham Thi D", DateOfBirth: "1960-02-01",
	})
	if err != nil {
		t.Fatalf("create citizen: %v", err)
	}
	if citizen.Status != registry.StatusResident {
		t.Fatalf("expected default resident status, got %q", citizen.Status)
	}

	if _, err := service.UpdateCitizen(ctx, auth.RoleAccountant, citizen.ID, UpdateCitizenRequest{Status: registry.StatusSuspended, SuspendedFrom: "2025-11-01"}); err != nil {
		t.Fatalf("update citizen: %v", err)
	}
	if err := service.DeleteCitizen(ctx, auth.RoleAdmin, citizen.ID); err != nil {
		t.Fatalf("delete citizen: %v", err)
	}
	if stored, _ := citizens.GetByID(ctx, citizen.ID); stored != nil {
		t.Fatalf("citizen not removed")
	}

	// household create + citizen create/update/delete
	if len(publisher.published) != 4 {
		t.Fatalf("expected 4 events, got %d", len(publisher.published))
	}
	last, ok := publisher.published[3].(events.CitizenChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", publisher.published[3])
	}
	if last.Operation != events.OpDelete || last.HouseholdID != household.ID {
		t.Fatalf("unexpected event %+v", last)
	}
}

func TestUpdateHouseholdAppliesFields(t *testing.T) {
	service, _, _, _ := newFixture(t)
	ctx := context.Background()

	household, err := service.CreateHousehold(ctx, auth.RoleAccountant, CreateHouseholdRequest{Code: "HK-005", OwnerName: "Before"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := false
	updated, err := service.UpdateHousehold(ctx, auth.RoleAccountant, household.ID, UpdateHouseholdRequest{
		OwnerName: "After", Active: &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.OwnerName != "After" || updated.Active {
		t.Fatalf("unexpected household %+v", updated)
	}
}
