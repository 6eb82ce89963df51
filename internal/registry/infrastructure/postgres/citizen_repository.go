package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	registry "household-registry/internal/registry/domain"
)

// CitizenRepository is a Postgres implementation for citizens.
type CitizenRepository struct {
	db    *sql.DB
	table string
}

// NewCitizenRepository constructs a repository.
func NewCitizenRepository(db *sql.DB, opts ...CitizenOption) *CitizenRepository {
	repo := &CitizenRepository{db: db, table: defaultCitizensTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CitizenOption configures the repository.
type CitizenOption func(*CitizenRepository)

// WithCitizensTable overrides the default table name.
func WithCitizensTable(table string) CitizenOption {
	return func(repo *CitizenRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a citizen.
func (r *CitizenRepository) Create(ctx context.Context, citizen *registry.Citizen) error {
	if r == nil || r.db == nil {
		return errors.New("citizen repo: nil db")
	}
	if citizen == nil {
		return errors.New("citizen repo: nil citizen")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, household_id, full_name, date_of_birth, status,
	suspended_from, suspended_to, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		citizen.ID, citizen.HouseholdID, citizen.FullName, citizen.DateOfBirth, citizen.Status,
		nullableTime(citizen.SuspendedFrom), nullableTime(citizen.SuspendedTo),
		citizen.CreatedAt, citizen.UpdatedAt)
	return err
}

// Update overwrites mutable citizen fields.
func (r *CitizenRepository) Update(ctx context.Context, citizen *registry.Citizen) error {
	if r == nil || r.db == nil {
		return errors.New("citizen repo: nil db")
	}
	if citizen == nil {
		return errors.New("citizen repo: nil citizen")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET full_name = $1, status = $2, suspended_from = $3, suspended_to = $4, updated_at = $5
WHERE id = $6`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		citizen.FullName, citizen.Status,
		nullableTime(citizen.SuspendedFrom), nullableTime(citizen.SuspendedTo),
		citizen.UpdatedAt, citizen.ID)
	return err
}

// GetByID loads a citizen by id; returns nil when absent.
func (r *CitizenRepository) GetByID(ctx context.Context, id string) (*registry.Citizen, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("citizen repo: nil db")
	}
	if id == "" {
		return nil, errors.New("citizen repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, full_name, date_of_birth, status,
	suspended_from, suspended_to, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	citizen, err := scanCitizen(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return citizen, nil
}

// ListByHousehold returns the citizens of a household.
func (r *CitizenRepository) ListByHousehold(ctx context.Context, householdID string) ([]registry.Citizen, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("citizen repo: nil db")
	}
	if householdID == "" {
		return nil, errors.New("citizen repo: empty household id")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, full_name, date_of_birth, status,
	suspended_from, suspended_to, created_at, updated_at
FROM %s
WHERE household_id = $1
ORDER BY full_name ASC, id ASC`, r.table)
	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Citizen
	for rows.Next() {
		citizen, err := scanCitizen(rows)
		if err != nil {
			return nil, err
		}
		if citizen != nil {
			result = append(result, *citizen)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a citizen.
func (r *CitizenRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("citizen repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCitizen(row rowScanner) (*registry.Citizen, error) {
	var citizen registry.Citizen
	var suspendedFrom, suspendedTo sql.NullTime
	err := row.Scan(
		&citizen.ID,
		&citizen.HouseholdID,
		&citizen.FullName,
		&citizen.DateOfBirth,
		&citizen.Status,
		&suspendedFrom,
		&suspendedTo,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if suspendedFrom.Valid {
		citizen.SuspendedFrom = suspendedFrom.Time.UTC()
	}
	if suspendedTo.Valid {
		citizen.SuspendedTo = suspendedTo.Time.UTC()
	}
	citizen.DateOfBirth = citizen.DateOfBirth.UTC()
	citizen.CreatedAt = citizen.CreatedAt.UTC()
	citizen.UpdatedAt = citizen.UpdatedAt.UTC()
	return &citizen, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
