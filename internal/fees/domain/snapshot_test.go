package fees

import (
	"testing"
	"time"

	registry "household-registry/internal/registry/domain"
)

func TestBuildSnapshotCountsActiveMembers(t *testing.T) {
	at := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	citizens := []registry.Citizen{
		{ID: "c1", HouseholdID: "hh-1", DateOfBirth: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusResident},
		{ID: "c2", HouseholdID: "hh-1", DateOfBirth: time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusDeceased},
		{ID: "c3", HouseholdID: "hh-1", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusMovedOut},
	}

	snapshot := BuildSnapshot("hh-1", citizens, DefaultDiscountPolicy(), at)
	if snapshot.ActiveMembers != 1 {
		t.Fatalf("expected 1 active member, got %d", snapshot.ActiveMembers)
	}
	if snapshot.ElderlyPresent || snapshot.StudentPresent {
		t.Fatalf("expected no discount flags, got %+v", snapshot)
	}
}

func TestBuildSnapshotSuspensionWindow(t *testing.T) {
	at := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	citizen := registry.Citizen{
		ID:            "c1",
		HouseholdID:   "hh-1",
		DateOfBirth:   time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        registry.StatusSuspended,
		SuspendedFrom: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		SuspendedTo:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}

	snapshot := BuildSnapshot("hh-1", []registry.Citizen{citizen}, DefaultDiscountPolicy(), at)
	if snapshot.ActiveMembers != 0 {
		t.Fatalf("expected suspended citizen excluded, got %d members", snapshot.ActiveMembers)
	}

	after := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	snapshot = BuildSnapshot("hh-1", []registry.Citizen{citizen}, DefaultDiscountPolicy(), after)
	if snapshot.ActiveMembers != 1 {
		t.Fatalf("expected citizen active after suspension window, got %d members", snapshot.ActiveMembers)
	}
}

func TestBuildSnapshotDiscountFlags(t *testing.T) {
	at := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	citizens := []registry.Citizen{
		// age 65
		{ID: "c1", HouseholdID: "hh-1", DateOfBirth: time.Date(1960, 6, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusResident},
		// age 20
		{ID: "c2", HouseholdID: "hh-1", DateOfBirth: time.Date(2005, 6, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusResident},
		// age 40
		{ID: "c3", HouseholdID: "hh-1", DateOfBirth: time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC), Status: registry.StatusResident},
	}

	snapshot := BuildSnapshot("hh-1", citizens, DefaultDiscountPolicy(), at)
	if snapshot.ActiveMembers != 3 {
		t.Fatalf("expected 3 active members, got %d", snapshot.ActiveMembers)
	}
	if !snapshot.ElderlyPresent {
		t.Fatalf("expected elderly flag for 65 year old")
	}
	if !snapshot.StudentPresent {
		t.Fatalf("expected student flag for 20 year old")
	}
}

func TestBuildSnapshotElderlyBoundary(t *testing.T) {
	at := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	// turns 60 exactly on the evaluation day
	exactly60 := registry.Citizen{
		ID: "c1", HouseholdID: "hh-1",
		DateOfBirth: time.Date(1965, 11, 15, 0, 0, 0, 0, time.UTC),
		Status:      registry.StatusResident,
	}
	snapshot := BuildSnapshot("hh-1", []registry.Citizen{exactly60}, DefaultDiscountPolicy(), at)
	if !snapshot.ElderlyPresent {
		t.Fatalf("expected 60 year old to qualify as elderly")
	}

	// one day short of 60
	almost60 := exactly60
	almost60.DateOfBirth = time.Date(1965, 11, 16, 0, 0, 0, 0, time.UTC)
	snapshot = BuildSnapshot("hh-1", []registry.Citizen{almost60}, DefaultDiscountPolicy(), at)
	if snapshot.ElderlyPresent {
		t.Fatalf("expected 59 year old not to qualify as elderly")
	}
}
