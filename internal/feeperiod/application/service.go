package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"household-registry/internal/auth"
	feeperiod "household-registry/internal/feeperiod/domain"
)

// CreateRequest carries fee period creation input.
type CreateRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	UnitRate    float64 `json:"unit_rate"`
	BillingMode string  `json:"billing_mode"`
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service handles fee period administration.
type Service struct {
	repo  feeperiod.Repository
	clock Clock
}

// NewService constructs a fee period service.
func NewService(repo feeperiod.Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("feeperiod service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, clock: clock}, nil
}

const dateLayout = "2006-01-02"

// Create validates and persists a new fee period.
func (s *Service) Create(ctx context.Context, actor auth.Role, req CreateRequest) (*feeperiod.FeePeriod, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, feeperiod.ErrInvalidDateRange
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, feeperiod.ErrInvalidDateRange
	}

	now := s.clock.Now().UTC()
	id := "period-" + buildShortID(req.Name+req.Category+now.Format(time.RFC3339Nano))
	period, err := feeperiod.NewFeePeriod(id, req.Name, req.Category, start, end, req.UnitRate, req.BillingMode)
	if err != nil {
		return nil, err
	}
	period.CreatedAt = now

	if err := s.repo.Create(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// GetByID loads a fee period.
func (s *Service) GetByID(ctx context.Context, id string) (*feeperiod.FeePeriod, error) {
	if id == "" {
		return nil, feeperiod.ErrEmptyID
	}
	period, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperiod.ErrPeriodNotFound
	}
	return period, nil
}

// List returns all fee periods.
func (s *Service) List(ctx context.Context) ([]feeperiod.FeePeriod, error) {
	return s.repo.List(ctx)
}

// ListOpen returns periods open at the current time.
func (s *Service) ListOpen(ctx context.Context) ([]feeperiod.FeePeriod, error) {
	return s.repo.ListOpenAt(ctx, s.clock.Now())
}

// Delete removes a fee period. Obligations referencing the period are a
// caller concern; no cascade is performed here.
func (s *Service) Delete(ctx context.Context, actor auth.Role, id string) error {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if id == "" {
		return feeperiod.ErrEmptyID
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return feeperiod.ErrPeriodNotFound
	}
	return s.repo.Delete(ctx, id)
}

func buildShortID(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:8])
}
