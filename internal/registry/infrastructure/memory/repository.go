package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	registry "household-registry/internal/registry/domain"
)

// HouseholdRepository is an in-memory household repository for tests.
type HouseholdRepository struct {
	mu   sync.RWMutex
	data map[string]registry.Household
}

// NewHouseholdRepository constructs a repository.
func NewHouseholdRepository() *HouseholdRepository {
	return &HouseholdRepository{data: make(map[string]registry.Household)}
}

// Create inserts a household.
func (r *HouseholdRepository) Create(_ context.Context, household *registry.Household) error {
	if household == nil {
		return errors.New("household repo: nil household")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[household.ID]; ok {
		return errors.New("household repo: duplicate id")
	}
	r.data[household.ID] = *household
	return nil
}

// Update overwrites a household.
func (r *HouseholdRepository) Update(_ context.Context, household *registry.Household) error {
	if household == nil {
		return errors.New("household repo: nil household")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[household.ID] = *household
	return nil
}

// GetByID loads a household; returns nil when absent.
func (r *HouseholdRepository) GetByID(_ context.Context, id string) (*registry.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	household, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := household
	return &copy, nil
}

// List returns all households ordered by code.
func (r *HouseholdRepository) List(_ context.Context) ([]registry.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]registry.Household, 0, len(r.data))
	for _, household := range r.data {
		result = append(result, household)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// Delete removes a household.
func (r *HouseholdRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

// CitizenRepository is an in-memory citizen repository for tests.
type CitizenRepository struct {
	mu   sync.RWMutex
	data map[string]registry.Citizen
}

// NewCitizenRepository constructs a repository.
func NewCitizenRepository() *CitizenRepository {
	return &CitizenRepository{data: make(map[string]registry.Citizen)}
}

// Create inserts a citizen.
func (r *CitizenRepository) Create(_ context.Context, citizen *registry.Citizen) error {
	if citizen == nil {
		return errors.New("citizen repo: nil citizen")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[citizen.ID]; ok {
		return errors.New("citizen repo: duplicate id")
	}
	r.data[citizen.ID] = *citizen
	return nil
}

// Update overwrites a citizen.
func (r *CitizenRepository) Update(_ context.Context, citizen *registry.Citizen) error {
	if citizen == nil {
		return errors.New("citizen repo: nil citizen")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[citizen.ID] = *citizen
	return nil
}

// GetByID loads a citizen; returns nil when absent.
func (r *CitizenRepository) GetByID(_ context.Context, id string) (*registry.Citizen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	citizen, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := citizen
	return &copy, nil
}

// ListByHousehold returns the citizens of a household.
func (r *CitizenRepository) ListByHousehold(_ context.Context, householdID string) ([]registry.Citizen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []registry.Citizen
	for _, citizen := range r.data {
		if citizen.HouseholdID == householdID {
			result = append(result, citizen)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete removes a citizen.
func (r *CitizenRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}
