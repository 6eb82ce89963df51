package fees

import (
	"time"

	registry "household-registry/internal/registry/domain"
)

// HouseholdSnapshot is the active-member view of a household at one instant.
// It is the sole household-side input to the fee calculator.
type HouseholdSnapshot struct {
	HouseholdID    string
	ActiveMembers  int
	ElderlyPresent bool
	StudentPresent bool
	TakenAt        time.Time
}

// BuildSnapshot derives the snapshot from the household's citizens at the
// given evaluation time. Only citizens active at that instant count toward
// the member total and the discount flags.
func BuildSnapshot(householdID string, citizens []registry.Citizen, policy DiscountPolicy, at time.Time) HouseholdSnapshot {
	at = at.UTC()
	snapshot := HouseholdSnapshot{HouseholdID: householdID, TakenAt: at}
	for i := range citizens {
		citizen := &citizens[i]
		if !citizen.ActiveAt(at) {
			continue
		}
		snapshot.ActiveMembers++
		age := citizen.AgeAt(at)
		if age >= policy.ElderlyAge {
			snapshot.ElderlyPresent = true
		}
		if age <= policy.StudentAge {
			snapshot.StudentPresent = true
		}
	}
	return snapshot
}
