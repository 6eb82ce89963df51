package fees

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyObligationID is returned when an obligation id is empty.
	ErrEmptyObligationID = errors.New("fees: empty obligation id")
	// ErrEmptyHouseholdID is returned when the household reference is empty.
	ErrEmptyHouseholdID = errors.New("fees: empty household id")
	// ErrEmptyPeriodID is returned when the fee period reference is empty.
	ErrEmptyPeriodID = errors.New("fees: empty period id")
	// ErrNegativeAmount is returned when a ledger amount is negative.
	ErrNegativeAmount = errors.New("fees: negative amount")
	// ErrInvalidMonth is returned when a covered month falls outside 1..12
	// or repeats within one obligation.
	ErrInvalidMonth = errors.New("fees: invalid covered month")
	// ErrNoCoveredMonths is returned when a per-month obligation carries no months.
	ErrNoCoveredMonths = errors.New("fees: no covered months")
	// ErrObligationNotFound is returned when no obligation exists for a
	// (household, period) pair.
	ErrObligationNotFound = errors.New("fees: obligation not found")
	// ErrNonPositivePayment is returned when a manual payment amount is not positive.
	ErrNonPositivePayment = errors.New("fees: non-positive payment amount")
	// ErrEmptyCollector is returned when a manual payment names no collector.
	ErrEmptyCollector = errors.New("fees: empty collector")
	// ErrNilSnapshot is returned when the calculator receives no snapshot.
	ErrNilSnapshot = errors.New("fees: nil household snapshot")
	// ErrNilPeriod is returned when the calculator receives no fee period.
	ErrNilPeriod = errors.New("fees: nil fee period")
)

// RecalculationError wraps a failure inside the after-commit ledger
// reconciliation path. It carries the affected household so the failure can
// be logged and swept later; it is never surfaced to the request that
// triggered the originating mutation.
type RecalculationError struct {
	HouseholdID string
	Err         error
}

func (e *RecalculationError) Error() string {
	return fmt.Sprintf("fees: recalculation failed for household %s: %v", e.HouseholdID, e.Err)
}

func (e *RecalculationError) Unwrap() error { return e.Err }
