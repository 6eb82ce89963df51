package registry

import "errors"

var (
	// ErrEmptyHouseholdID is returned when the household id is empty.
	ErrEmptyHouseholdID = errors.New("registry: empty household id")
	// ErrEmptyHouseholdCode is returned when the household code is empty.
	ErrEmptyHouseholdCode = errors.New("registry: empty household code")
	// ErrEmptyOwnerName is returned when the owner name is empty.
	ErrEmptyOwnerName = errors.New("registry: empty owner name")
	// ErrHouseholdNotFound is returned when a household cannot be found.
	ErrHouseholdNotFound = errors.New("registry: household not found")
	// ErrEmptyCitizenID is returned when the citizen id is empty.
	ErrEmptyCitizenID = errors.New("registry: empty citizen id")
	// ErrEmptyFullName is returned when the citizen name is empty.
	ErrEmptyFullName = errors.New("registry: empty full name")
	// ErrInvalidDateOfBirth is returned when the date of birth is missing.
	ErrInvalidDateOfBirth = errors.New("registry: invalid date of birth")
	// ErrInvalidStatus is returned when the citizen status is unsupported.
	ErrInvalidStatus = errors.New("registry: invalid citizen status")
	// ErrInvalidSuspension is returned when the suspension window is inverted.
	ErrInvalidSuspension = errors.New("registry: invalid suspension window")
	// ErrCitizenNotFound is returned when a citizen cannot be found.
	ErrCitizenNotFound = errors.New("registry: citizen not found")
)
