package feeperiod

import (
	"context"
	"time"
)

// Repository persists fee periods.
type Repository interface {
	Create(ctx context.Context, period *FeePeriod) error
	GetByID(ctx context.Context, id string) (*FeePeriod, error)
	List(ctx context.Context) ([]FeePeriod, error)
	ListOpenAt(ctx context.Context, at time.Time) ([]FeePeriod, error)
	Delete(ctx context.Context, id string) error
}
