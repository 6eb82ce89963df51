package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	feeperiod "household-registry/internal/feeperiod/domain"
	fees "household-registry/internal/fees/domain"
	"household-registry/internal/registry/application/events"
	registry "household-registry/internal/registry/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// RecalculationService keeps the fee ledger consistent with household and
// citizen state. It runs strictly after the originating mutation committed,
// in its own transaction scope; a failure here leaves the ledger stale and
// never unwinds the mutation that triggered it.
type RecalculationService struct {
	households  registry.HouseholdRepository
	citizens    registry.CitizenRepository
	periods     feeperiod.Repository
	obligations fees.ObligationRepository
	calculator  *fees.Calculator
	clock       Clock
	logger      *log.Logger
}

// NewRecalculationService constructs the service.
func NewRecalculationService(
	households registry.HouseholdRepository,
	citizens registry.CitizenRepository,
	periods feeperiod.Repository,
	obligations fees.ObligationRepository,
	calculator *fees.Calculator,
	clock Clock,
	logger *log.Logger,
) (*RecalculationService, error) {
	if households == nil || citizens == nil {
		return nil, errors.New("recalculation service: nil registry repository")
	}
	if periods == nil {
		return nil, errors.New("recalculation service: nil period repository")
	}
	if obligations == nil {
		return nil, errors.New("recalculation service: nil obligation repository")
	}
	if calculator == nil {
		calculator = fees.NewCalculator(fees.DefaultDiscountPolicy())
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RecalculationService{
		households:  households,
		citizens:    citizens,
		periods:     periods,
		obligations: obligations,
		calculator:  calculator,
		clock:       clock,
		logger:      logger,
	}, nil
}

// HandleHouseholdChanged reconciles the ledger after a household mutation.
func (s *RecalculationService) HandleHouseholdChanged(ctx context.Context, event events.HouseholdChanged) error {
	switch event.Operation {
	case events.OpCreate:
		return s.CreateInitialObligations(ctx, event.HouseholdID)
	case events.OpUpdate:
		return s.RecalculateHousehold(ctx, event.HouseholdID)
	case events.OpDelete:
		if err := s.obligations.DeleteAllForHousehold(ctx, event.HouseholdID); err != nil {
			return &fees.RecalculationError{HouseholdID: event.HouseholdID, Err: err}
		}
		return nil
	default:
		return &fees.RecalculationError{
			HouseholdID: event.HouseholdID,
			Err:         fmt.Errorf("unknown operation %q", event.Operation),
		}
	}
}

// HandleCitizenChanged reconciles the ledger after a citizen mutation. Any
// citizen operation resolves to a recalculation of the citizen's household.
func (s *RecalculationService) HandleCitizenChanged(ctx context.Context, event events.CitizenChanged) error {
	return s.RecalculateHousehold(ctx, event.HouseholdID)
}

// CreateInitialObligations builds an obligation for every fee period
// currently open, from the household's member snapshot at this instant.
func (s *RecalculationService) CreateInitialObligations(ctx context.Context, householdID string) error {
	now := s.clock.Now().UTC()
	snapshot, err := s.buildSnapshot(ctx, householdID, now)
	if err != nil {
		return &fees.RecalculationError{HouseholdID: householdID, Err: err}
	}
	periods, err := s.periods.ListOpenAt(ctx, now)
	if err != nil {
		return &fees.RecalculationError{HouseholdID: householdID, Err: err}
	}
	for i := range periods {
		if err := s.upsertForPeriod(ctx, snapshot, &periods[i], now); err != nil {
			return &fees.RecalculationError{HouseholdID: householdID, Err: err}
		}
	}
	return nil
}

// RecalculateHousehold recomputes every obligation the household currently
// holds. Recalculation is idempotent: with no intervening state change it
// writes identical amounts and covered months.
func (s *RecalculationService) RecalculateHousehold(ctx context.Context, householdID string) error {
	household, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return &fees.RecalculationError{HouseholdID: householdID, Err: err}
	}
	if household == nil {
		// The household vanished between commit and delivery. Clearing
		// the ledger matches what its delete notification will do.
		if err := s.obligations.DeleteAllForHousehold(ctx, householdID); err != nil {
			return &fees.RecalculationError{HouseholdID: householdID, Err: err}
		}
		return nil
	}
	now := s.clock.Now().UTC()
	snapshot, err := s.buildSnapshot(ctx, householdID, now)
	if err != nil {
		return &fees.RecalculationError{HouseholdID: householdID, Err: err}
	}
	existing, err := s.obligations.ListByHousehold(ctx, householdID)
	if err != nil {
		return &fees.RecalculationError{HouseholdID: householdID, Err: err}
	}
	for i := range existing {
		period, err := s.periods.GetByID(ctx, existing[i].PeriodID)
		if err != nil {
			return &fees.RecalculationError{HouseholdID: householdID, Err: err}
		}
		if period == nil {
			s.logger.Printf("recalculation skipped orphan obligation: household=%s period=%s", householdID, existing[i].PeriodID)
			continue
		}
		if err := s.upsertForPeriod(ctx, snapshot, period, now); err != nil {
			return &fees.RecalculationError{HouseholdID: householdID, Err: err}
		}
	}
	return nil
}

func (s *RecalculationService) buildSnapshot(ctx context.Context, householdID string, at time.Time) (fees.HouseholdSnapshot, error) {
	citizens, err := s.citizens.ListByHousehold(ctx, householdID)
	if err != nil {
		return fees.HouseholdSnapshot{}, err
	}
	return fees.BuildSnapshot(householdID, citizens, s.calculator.Policy(), at), nil
}

func (s *RecalculationService) upsertForPeriod(ctx context.Context, snapshot fees.HouseholdSnapshot, period *feeperiod.FeePeriod, now time.Time) error {
	breakdown, err := s.calculator.Compute(snapshot, period)
	if err != nil {
		return err
	}
	obligation := &fees.Obligation{
		ID:            obligationID(snapshot.HouseholdID, period.ID),
		HouseholdID:   snapshot.HouseholdID,
		PeriodID:      period.ID,
		Amount:        breakdown.Amount,
		CoveredMonths: breakdown.CoveredMonths,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := obligation.Validate(); err != nil {
		return err
	}
	return s.obligations.UpsertComputed(ctx, obligation)
}

// obligationID is deterministic per (household, period) so repeated
// recalculations address the same ledger row.
func obligationID(householdID, periodID string) string {
	sum := sha1.Sum([]byte(householdID + "|" + periodID))
	return "obl-" + hex.EncodeToString(sum[:])[:12]
}
