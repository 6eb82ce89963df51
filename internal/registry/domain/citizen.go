package registry

import (
	"strings"
	"time"
)

const (
	StatusResident  = "resident"
	StatusSuspended = "suspended"
	StatusDeceased  = "deceased"
	StatusMovedOut  = "moved_out"
)

// Citizen is a registered member of a household.
type Citizen struct {
	ID            string
	HouseholdID   string
	FullName      string
	DateOfBirth   time.Time
	Status        string
	SuspendedFrom time.Time
	SuspendedTo   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate enforces citizen invariants.
func (c *Citizen) Validate() error {
	if c == nil || c.ID == "" {
		return ErrEmptyCitizenID
	}
	if c.HouseholdID == "" {
		return ErrEmptyHouseholdID
	}
	if strings.TrimSpace(c.FullName) == "" {
		return ErrEmptyFullName
	}
	if c.DateOfBirth.IsZero() {
		return ErrInvalidDateOfBirth
	}
	if _, ok := NormalizeStatus(c.Status); !ok {
		return ErrInvalidStatus
	}
	if !c.SuspendedFrom.IsZero() && !c.SuspendedTo.IsZero() && c.SuspendedTo.Before(c.SuspendedFrom) {
		return ErrInvalidSuspension
	}
	return nil
}

// ActiveAt reports whether the citizen counts toward the household fee base
// at the given evaluation time.
func (c *Citizen) ActiveAt(at time.Time) bool {
	if c == nil {
		return false
	}
	switch c.Status {
	case StatusDeceased, StatusMovedOut:
		return false
	case StatusSuspended:
		return !c.suspendedAt(at)
	}
	return !c.suspendedAt(at)
}

func (c *Citizen) suspendedAt(at time.Time) bool {
	if c.SuspendedFrom.IsZero() {
		return c.Status == StatusSuspended
	}
	at = at.UTC()
	if at.Before(c.SuspendedFrom) {
		return false
	}
	if c.SuspendedTo.IsZero() {
		return true
	}
	return !at.After(c.SuspendedTo)
}

// AgeAt returns the citizen's age in full years at the given time.
func (c *Citizen) AgeAt(at time.Time) int {
	if c == nil || c.DateOfBirth.IsZero() {
		return 0
	}
	at = at.UTC()
	dob := c.DateOfBirth.UTC()
	years := at.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NormalizeStatus validates and normalizes a citizen status.
func NormalizeStatus(value string) (string, bool) {
	switch value {
	case StatusResident, StatusSuspended, StatusDeceased, StatusMovedOut:
		return value, true
	default:
		return "", false
	}
}
