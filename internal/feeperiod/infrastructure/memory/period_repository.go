package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	feeperiod "household-registry/internal/feeperiod/domain"
)

// PeriodRepository is an in-memory fee period repository for tests.
type PeriodRepository struct {
	mu   sync.RWMutex
	data map[string]feeperiod.FeePeriod
}

// NewPeriodRepository constructs a repository.
func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{data: make(map[string]feeperiod.FeePeriod)}
}

// Create inserts a fee period.
func (r *PeriodRepository) Create(_ context.Context, period *feeperiod.FeePeriod) error {
	if period == nil {
		return errors.New("period repo: nil period")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[period.ID]; ok {
		return errors.New("period repo: duplicate id")
	}
	r.data[period.ID] = *period
	return nil
}

// GetByID loads a period; returns nil when absent.
func (r *PeriodRepository) GetByID(_ context.Context, id string) (*feeperiod.FeePeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	period, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := period
	return &copy, nil
}

// List returns all periods ordered by start date.
func (r *PeriodRepository) List(_ context.Context) ([]feeperiod.FeePeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]feeperiod.FeePeriod, 0, len(r.data))
	for _, period := range r.data {
		result = append(result, period)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// ListOpenAt returns periods covering the given instant.
func (r *PeriodRepository) ListOpenAt(ctx context.Context, at time.Time) ([]feeperiod.FeePeriod, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []feeperiod.FeePeriod
	for _, period := range all {
		if period.OpenAt(at) {
			result = append(result, period)
		}
	}
	return result, nil
}

// Delete removes a period.
func (r *PeriodRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}
