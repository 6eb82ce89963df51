package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"household-registry/internal/auth"
	feeperiod "household-registry/internal/feeperiod/domain"
	fees "household-registry/internal/fees/domain"
	registry "household-registry/internal/registry/domain"
)

// PaymentService records manual fee collections. Payments are append-only;
// they never alter the computed obligation amount.
type PaymentService struct {
	households  registry.HouseholdRepository
	periods     feeperiod.Repository
	obligations fees.ObligationRepository
	payments    fees.PaymentRepository
	clock       Clock
}

// NewPaymentService constructs the service.
func NewPaymentService(
	households registry.HouseholdRepository,
	periods feeperiod.Repository,
	obligations fees.ObligationRepository,
	payments fees.PaymentRepository,
	clock Clock,
) (*PaymentService, error) {
	if households == nil {
		return nil, errors.New("payment service: nil household repository")
	}
	if periods == nil {
		return nil, errors.New("payment service: nil period repository")
	}
	if obligations == nil || payments == nil {
		return nil, errors.New("payment service: nil ledger repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &PaymentService{
		households:  households,
		periods:     periods,
		obligations: obligations,
		payments:    payments,
		clock:       clock,
	}, nil
}

// RecordPaymentRequest carries manual payment input.
type RecordPaymentRequest struct {
	HouseholdID string  `json:"household_id"`
	PeriodID    string  `json:"period_id"`
	Amount      float64 `json:"amount"`
	Collector   string  `json:"collector"`
	Note        string  `json:"note"`
}

// RecordPayment appends a collection record and stamps the collector onto
// the household's obligation for the period, when one exists.
func (s *PaymentService) RecordPayment(ctx context.Context, actor auth.Role, req RecordPaymentRequest) (*fees.Payment, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	household, err := s.households.GetByID(ctx, req.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, registry.ErrHouseholdNotFound
	}
	period, err := s.periods.GetByID(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperiod.ErrPeriodNotFound
	}
	now := s.clock.Now().UTC()
	payment := &fees.Payment{
		ID:          "pay-" + paymentShortID(req.HouseholdID+req.PeriodID+now.Format(time.RFC3339Nano)),
		HouseholdID: req.HouseholdID,
		PeriodID:    req.PeriodID,
		Amount:      req.Amount,
		Collector:   req.Collector,
		Note:        req.Note,
		PaidAt:      now,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.obligations.SetCollector(ctx, req.HouseholdID, req.PeriodID, req.Collector); err != nil {
		if !errors.Is(err, fees.ErrObligationNotFound) {
			return nil, err
		}
	}
	return payment, nil
}

func paymentShortID(seed string) string {
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:8]
}
