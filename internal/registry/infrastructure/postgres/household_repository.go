package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	registry "household-registry/internal/registry/domain"
)

const (
	defaultHouseholdsTable = "households"
	defaultCitizensTable   = "citizens"
)

// HouseholdRepository is a Postgres implementation for households.
type HouseholdRepository struct {
	db            *sql.DB
	table         string
	citizensTable string
}

// NewHouseholdRepository constructs a repository.
func NewHouseholdRepository(db *sql.DB, opts ...HouseholdOption) *HouseholdRepository {
	repo := &HouseholdRepository{db: db, table: defaultHouseholdsTable, citizensTable: defaultCitizensTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// HouseholdOption configures the repository.
type HouseholdOption func(*HouseholdRepository)

// WithHouseholdsTable overrides the default table name.
func WithHouseholdsTable(table string) HouseholdOption {
	return func(repo *HouseholdRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a household.
func (r *HouseholdRepository) Create(ctx context.Context, household *registry.Household) error {
	if r == nil || r.db == nil {
		return errors.New("household repo: nil db")
	}
	if household == nil {
		return errors.New("household repo: nil household")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, code, address, owner_name, active, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		household.ID, household.Code, household.Address, household.OwnerName,
		household.Active, household.CreatedAt, household.UpdatedAt)
	return err
}

// Update overwrites mutable household fields.
func (r *HouseholdRepository) Update(ctx context.Context, household *registry.Household) error {
	if r == nil || r.db == nil {
		return errors.New("household repo: nil db")
	}
	if household == nil {
		return errors.New("household repo: nil household")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET address = $1, owner_name = $2, active = $3, updated_at = $4
WHERE id = $5`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		household.Address, household.OwnerName, household.Active, household.UpdatedAt, household.ID)
	return err
}

// GetByID loads a household by id; returns nil when absent.
func (r *HouseholdRepository) GetByID(ctx context.Context, id string) (*registry.Household, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("household repo: nil db")
	}
	if id == "" {
		return nil, errors.New("household repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT id, code, address, owner_name, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	var household registry.Household
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&household.ID,
		&household.Code,
		&household.Address,
		&household.OwnerName,
		&household.Active,
		&household.CreatedAt,
		&household.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	household.CreatedAt = household.CreatedAt.UTC()
	household.UpdatedAt = household.UpdatedAt.UTC()
	return &household, nil
}

// List returns all households ordered by code.
func (r *HouseholdRepository) List(ctx context.Context) ([]registry.Household, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("household repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, code, address, owner_name, active, created_at, updated_at
FROM %s
ORDER BY code ASC`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Household
	for rows.Next() {
		var household registry.Household
		if err := rows.Scan(
			&household.ID,
			&household.Code,
			&household.Address,
			&household.OwnerName,
			&household.Active,
			&household.CreatedAt,
			&household.UpdatedAt,
		); err != nil {
			return nil, err
		}
		household.CreatedAt = household.CreatedAt.UTC()
		household.UpdatedAt = household.UpdatedAt.UTC()
		result = append(result, household)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a household and its citizens in one transaction.
func (r *HouseholdRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("household repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	citizensQuery := fmt.Sprintf(`DELETE FROM %s WHERE household_id = $1`, r.citizensTable)
	if _, err := tx.ExecContext(ctx, citizensQuery, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	householdQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	if _, err := tx.ExecContext(ctx, householdQuery, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
