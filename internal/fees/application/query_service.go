package application

import (
	"context"
	"errors"

	feeperiod "household-registry/internal/feeperiod/domain"
	fees "household-registry/internal/fees/domain"
	registry "household-registry/internal/registry/domain"
)

// QueryService serves the read side of the fee ledger.
type QueryService struct {
	households  registry.HouseholdRepository
	citizens    registry.CitizenRepository
	periods     feeperiod.Repository
	obligations fees.ObligationRepository
	payments    fees.PaymentRepository
	calculator  *fees.Calculator
	clock       Clock
}

// NewQueryService constructs the service.
func NewQueryService(
	households registry.HouseholdRepository,
	citizens registry.CitizenRepository,
	periods feeperiod.Repository,
	obligations fees.ObligationRepository,
	payments fees.PaymentRepository,
	calculator *fees.Calculator,
	clock Clock,
) (*QueryService, error) {
	if households == nil || citizens == nil {
		return nil, errors.New("fee query service: nil registry repository")
	}
	if periods == nil {
		return nil, errors.New("fee query service: nil period repository")
	}
	if obligations == nil || payments == nil {
		return nil, errors.New("fee query service: nil ledger repository")
	}
	if calculator == nil {
		calculator = fees.NewCalculator(fees.DefaultDiscountPolicy())
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &QueryService{
		households:  households,
		citizens:    citizens,
		periods:     periods,
		obligations: obligations,
		payments:    payments,
		calculator:  calculator,
		clock:       clock,
	}, nil
}

// CalculateFee computes the current fee for a household and period on the
// fly, without touching the persisted ledger.
func (s *QueryService) CalculateFee(ctx context.Context, householdID, periodID string) (fees.Breakdown, error) {
	household, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return fees.Breakdown{}, err
	}
	if household == nil {
		return fees.Breakdown{}, registry.ErrHouseholdNotFound
	}
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return fees.Breakdown{}, err
	}
	if period == nil {
		return fees.Breakdown{}, feeperiod.ErrPeriodNotFound
	}
	citizens, err := s.citizens.ListByHousehold(ctx, householdID)
	if err != nil {
		return fees.Breakdown{}, err
	}
	snapshot := fees.BuildSnapshot(householdID, citizens, s.calculator.Policy(), s.clock.Now())
	return s.calculator.Compute(snapshot, period)
}

// Stats aggregates both sides of the ledger. An empty periodID
// aggregates every period.
func (s *QueryService) Stats(ctx context.Context, periodID string) (fees.PeriodStats, error) {
	stats := fees.PeriodStats{PeriodID: periodID}
	if periodID != "" {
		period, err := s.periods.GetByID(ctx, periodID)
		if err != nil {
			return stats, err
		}
		if period == nil {
			return stats, feeperiod.ErrPeriodNotFound
		}
	}
	totals, err := s.obligations.Totals(ctx, periodID)
	if err != nil {
		return stats, err
	}
	stats.TotalObligated = totals.TotalAmount
	stats.ObligationCount = totals.Count
	stats.HouseholdsWithObligations = totals.DistinctHouseholds
	collected, err := s.payments.SumCollected(ctx, periodID)
	if err != nil {
		return stats, err
	}
	stats.TotalCollected = collected
	paid, err := s.payments.CountDistinctHouseholds(ctx, periodID)
	if err != nil {
		return stats, err
	}
	stats.DistinctHouseholdsPaid = paid
	return stats, nil
}

// ListByHousehold returns the household's obligations.
func (s *QueryService) ListByHousehold(ctx context.Context, householdID string) ([]fees.Obligation, error) {
	if householdID == "" {
		return nil, fees.ErrEmptyHouseholdID
	}
	return s.obligations.ListByHousehold(ctx, householdID)
}

// ListByPeriod returns every obligation recorded against a period.
func (s *QueryService) ListByPeriod(ctx context.Context, periodID string) ([]fees.Obligation, error) {
	if periodID == "" {
		return nil, fees.ErrEmptyPeriodID
	}
	return s.obligations.ListByPeriod(ctx, periodID)
}

// ListPayments returns the payments recorded against a period.
func (s *QueryService) ListPayments(ctx context.Context, periodID string) ([]fees.Payment, error) {
	if periodID == "" {
		return nil, fees.ErrEmptyPeriodID
	}
	return s.payments.ListByPeriod(ctx, periodID)
}
