package events

import "time"

// Change operations carried by registry change events.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// HouseholdChanged is published after a household mutation commits.
type HouseholdChanged struct {
	EventID     string    `json:"event_id"`
	HouseholdID string    `json:"household_id"`
	Operation   string    `json:"operation"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// CitizenChanged is published after a citizen mutation commits.
type CitizenChanged struct {
	EventID     string    `json:"event_id"`
	CitizenID   string    `json:"citizen_id"`
	HouseholdID string    `json:"household_id"`
	Operation   string    `json:"operation"`
	OccurredAt  time.Time `json:"occurred_at"`
}
