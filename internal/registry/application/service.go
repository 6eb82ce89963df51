package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"household-registry/internal/auth"
	"household-registry/internal/eventing"
	"household-registry/internal/registry/application/events"
	registry "household-registry/internal/registry/domain"
)

// ChangePublisher delivers change events to the after-commit pipeline.
type ChangePublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service handles household and citizen administration. Every mutation
// publishes its change event only after the repository write committed;
// a publish failure leaves the ledger stale, never the mutation undone.
type Service struct {
	households registry.HouseholdRepository
	citizens   registry.CitizenRepository
	publisher  ChangePublisher
	clock      Clock
	logger     *log.Logger
}

// NewService constructs a registry service.
func NewService(households registry.HouseholdRepository, citizens registry.CitizenRepository, publisher ChangePublisher, clock Clock, logger *log.Logger) (*Service, error) {
	if households == nil {
		return nil, errors.New("registry service: nil household repository")
	}
	if citizens == nil {
		return nil, errors.New("registry service: nil citizen repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		households: households,
		citizens:   citizens,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}, nil
}

// CreateHouseholdRequest carries household creation input.
type CreateHouseholdRequest struct {
	Code      string `json:"code"`
	Address   string `json:"address"`
	OwnerName string `json:"owner_name"`
}

// UpdateHouseholdRequest carries household update input.
type UpdateHouseholdRequest struct {
	Address   string `json:"address"`
	OwnerName string `json:"owner_name"`
	Active    *bool  `json:"active"`
}

// CreateHousehold registers a new household and publishes the change.
func (s *Service) CreateHousehold(ctx context.Context, actor auth.Role, req CreateHouseholdRequest) (*registry.Household, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	household := &registry.Household{
		ID:        "hh-" + buildShortID(req.Code+now.Format(time.RFC3339Nano)),
		Code:      req.Code,
		Address:   req.Address,
		OwnerName: req.OwnerName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := household.Validate(); err != nil {
		return nil, err
	}
	if err := s.households.Create(ctx, household); err != nil {
		return nil, err
	}
	s.publishHouseholdChanged(ctx, household.ID, events.OpCreate, now)
	return household, nil
}

// UpdateHousehold applies mutable household fields and publishes the change.
func (s *Service) UpdateHousehold(ctx context.Context, actor auth.Role, id string, req UpdateHouseholdRequest) (*registry.Household, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	household, err := s.getHousehold(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Address != "" {
		household.Address = req.Address
	}
	if req.OwnerName != "" {
		household.OwnerName = req.OwnerName
	}
	if req.Active != nil {
		household.Active = *req.Active
	}
	now := s.clock.Now().UTC()
	household.UpdatedAt = now
	if err := household.Validate(); err != nil {
		return nil, err
	}
	if err := s.households.Update(ctx, household); err != nil {
		return nil, err
	}
	s.publishHouseholdChanged(ctx, household.ID, events.OpUpdate, now)
	return household, nil
}

// DeleteHousehold removes a household together with its citizens and
// publishes the change so the fee ledger is cleared.
func (s *Service) DeleteHousehold(ctx context.Context, actor auth.Role, id string) error {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.getHousehold(ctx, id); err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	if err := s.households.Delete(ctx, id); err != nil {
		return err
	}
	s.publishHouseholdChanged(ctx, id, events.OpDelete, now)
	return nil
}

// GetHousehold loads a household.
func (s *Service) GetHousehold(ctx context.Context, id string) (*registry.Household, error) {
	return s.getHousehold(ctx, id)
}

// ListHouseholds returns all households.
func (s *Service) ListHouseholds(ctx context.Context) ([]registry.Household, error) {
	return s.households.List(ctx)
}

// CreateCitizenRequest carries citizen creation input.
type CreateCitizenRequest struct {
	HouseholdID   string `json:"household_id"`
	FullName      string `json:"full_name"`
	DateOfBirth   string `json:"date_of_birth"`
	Status        string `json:"status"`
	SuspendedFrom string `json:"suspended_from"`
	SuspendedTo   string `json:"suspended_to"`
}

// UpdateCitizenRequest carries citizen update input.
type UpdateCitizenRequest struct {
	FullName      string `json:"full_name"`
	Status        string `json:"status"`
	SuspendedFrom string `json:"suspended_from"`
	SuspendedTo   string `json:"suspended_to"`
}

const dateLayout = "2006-01-02"

// CreateCitizen registers a citizen into a household and publishes the change.
func (s *Service) CreateCitizen(ctx context.Context, actor auth.Role, req CreateCitizenRequest) (*registry.Citizen, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	if _, err := s.getHousehold(ctx, req.HouseholdID); err != nil {
		return nil, err
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return nil, registry.ErrInvalidDateOfBirth
	}
	status := req.Status
	if status == "" {
		status = registry.StatusResident
	}
	now := s.clock.Now().UTC()
	citizen := &registry.Citizen{
		ID:          "ctz-" + buildShortID(req.HouseholdID+req.FullName+now.Format(time.RFC3339Nano)),
		HouseholdID: req.HouseholdID,
		FullName:    req.FullName,
		DateOfBirth: dob.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if citizen.SuspendedFrom, err = parseOptionalDate(req.SuspendedFrom); err != nil {
		return nil, registry.ErrInvalidSuspension
	}
	if citizen.SuspendedTo, err = parseOptionalDate(req.SuspendedTo); err != nil {
		return nil, registry.ErrInvalidSuspension
	}
	if err := citizen.Validate(); err != nil {
		return nil, err
	}
	if err := s.citizens.Create(ctx, citizen); err != nil {
		return nil, err
	}
	s.publishCitizenChanged(ctx, citizen.ID, citizen.HouseholdID, events.OpCreate, now)
	return citizen, nil
}

// UpdateCitizen applies mutable citizen fields and publishes the change.
func (s *Service) UpdateCitizen(ctx context.Context, actor auth.Role, id string, req UpdateCitizenRequest) (*registry.Citizen, error) {
	if err := auth.Require(actor, auth.RoleAccountant); err != nil {
		return nil, err
	}
	citizen, err := s.getCitizen(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != "" {
		citizen.FullName = req.FullName
	}
	if req.Status != "" {
		citizen.Status = req.Status
	}
	if req.SuspendedFrom != "" {
		if citizen.SuspendedFrom, err = parseOptionalDate(req.SuspendedFrom); err != nil {
			return nil, registry.ErrInvalidSuspension
		}
	}
	if req.SuspendedTo != "" {
		if citizen.SuspendedTo, err = parseOptionalDate(req.SuspendedTo); err != nil {
			return nil, registry.ErrInvalidSuspension
		}
	}
	now := s.clock.Now().UTC()
	citizen.UpdatedAt = now
	if err := citizen.Validate(); err != nil {
		return nil, err
	}
	if err := s.citizens.Update(ctx, citizen); err != nil {
		return nil, err
	}
	s.publishCitizenChanged(ctx, citizen.ID, citizen.HouseholdID, events.OpUpdate, now)
	return citizen, nil
}

// DeleteCitizen removes a citizen and publishes the change.
func (s *Service) DeleteCitizen(ctx context.Context, actor auth.Role, id string) error {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return err
	}
	citizen, err := s.getCitizen(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	if err := s.citizens.Delete(ctx, id); err != nil {
		return err
	}
	s.publishCitizenChanged(ctx, citizen.ID, citizen.HouseholdID, events.OpDelete, now)
	return nil
}

// GetCitizen loads a citizen.
func (s *Service) GetCitizen(ctx context.Context, id string) (*registry.Citizen, error) {
	return s.getCitizen(ctx, id)
}

// ListCitizens returns the citizens of a household.
func (s *Service) ListCitizens(ctx context.Context, householdID string) ([]registry.Citizen, error) {
	if householdID == "" {
		return nil, registry.ErrEmptyHouseholdID
	}
	return s.citizens.ListByHousehold(ctx, householdID)
}

func (s *Service) getHousehold(ctx context.Context, id string) (*registry.Household, error) {
	if id == "" {
		return nil, registry.ErrEmptyHouseholdID
	}
	household, err := s.households.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, registry.ErrHouseholdNotFound
	}
	return household, nil
}

func (s *Service) getCitizen(ctx context.Context, id string) (*registry.Citizen, error) {
	if id == "" {
		return nil, registry.ErrEmptyCitizenID
	}
	citizen, err := s.citizens.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if citizen == nil {
		return nil, registry.ErrCitizenNotFound
	}
	return citizen, nil
}

func (s *Service) publishHouseholdChanged(ctx context.Context, householdID, operation string, occurredAt time.Time) {
	if s.publisher == nil {
		return
	}
	eventID := eventing.NewEventID()
	ctx = eventing.WithEventID(ctx, eventID)
	ctx = eventing.WithHouseholdID(ctx, householdID)
	event := events.HouseholdChanged{
		EventID:     eventID,
		HouseholdID: householdID,
		Operation:   operation,
		OccurredAt:  occurredAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("household change publish failed: household=%s op=%s err=%v", householdID, operation, err)
	}
}

func (s *Service) publishCitizenChanged(ctx context.Context, citizenID, householdID, operation string, occurredAt time.Time) {
	if s.publisher == nil {
		return
	}
	eventID := eventing.NewEventID()
	ctx = eventing.WithEventID(ctx, eventID)
	ctx = eventing.WithHouseholdID(ctx, householdID)
	event := events.CitizenChanged{
		EventID:     eventID,
		CitizenID:   citizenID,
		HouseholdID: householdID,
		Operation:   operation,
		OccurredAt:  occurredAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("citizen change publish failed: citizen=%s household=%s op=%s err=%v", citizenID, householdID, operation, err)
	}
}

func parseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func buildShortID(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:8])
}
