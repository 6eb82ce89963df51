package registry

import "context"

// HouseholdRepository persists households.
type HouseholdRepository interface {
	Create(ctx context.Context, household *Household) error
	Update(ctx context.Context, household *Household) error
	GetByID(ctx context.Context, id string) (*Household, error)
	List(ctx context.Context) ([]Household, error)
	Delete(ctx context.Context, id string) error
}

// CitizenRepository persists citizens.
type CitizenRepository interface {
	Create(ctx context.Context, citizen *Citizen) error
	Update(ctx context.Context, citizen *Citizen) error
	GetByID(ctx context.Context, id string) (*Citizen, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Citizen, error)
	Delete(ctx context.Context, id string) error
}
