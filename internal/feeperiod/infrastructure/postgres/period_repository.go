package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	feeperiod "household-registry/internal/feeperiod/domain"
)

const defaultPeriodsTable = "fee_periods"

// PeriodRepository is a Postgres implementation for fee periods.
type PeriodRepository struct {
	db    *sql.DB
	table string
}

// NewPeriodRepository constructs a repository.
func NewPeriodRepository(db *sql.DB, opts ...PeriodOption) *PeriodRepository {
	repo := &PeriodRepository{db: db, table: defaultPeriodsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PeriodOption configures the repository.
type PeriodOption func(*PeriodRepository)

// WithPeriodsTable overrides the default table name.
func WithPeriodsTable(table string) PeriodOption {
	return func(repo *PeriodRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a fee period.
func (r *PeriodRepository) Create(ctx context.Context, period *feeperiod.FeePeriod) error {
	if r == nil || r.db == nil {
		return errors.New("period repo: nil db")
	}
	if period == nil {
		return errors.New("period repo: nil period")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, name, category, start_date, end_date, unit_rate, billing_mode, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		period.ID, period.Name, period.Category, period.StartDate, period.EndDate,
		period.UnitRate, period.BillingMode, period.CreatedAt)
	return err
}

// GetByID loads a fee period by id; returns nil when absent.
func (r *PeriodRepository) GetByID(ctx context.Context, id string) (*feeperiod.FeePeriod, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	if id == "" {
		return nil, errors.New("period repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT id, name, category, start_date, end_date, unit_rate, billing_mode, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, id)
	return scanPeriod(row)
}

// List returns all fee periods ordered by start date.
func (r *PeriodRepository) List(ctx context.Context) ([]feeperiod.FeePeriod, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, category, start_date, end_date, unit_rate, billing_mode, created_at
FROM %s
ORDER BY start_date ASC, id ASC`, r.table)
	return r.queryPeriods(ctx, query)
}

// ListOpenAt returns periods whose date range covers the given instant.
func (r *PeriodRepository) ListOpenAt(ctx context.Context, at time.Time) ([]feeperiod.FeePeriod, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, category, start_date, end_date, unit_rate, billing_mode, created_at
FROM %s
WHERE start_date <= $1 AND end_date >= $1
ORDER BY start_date ASC, id ASC`, r.table)
	return r.queryPeriods(ctx, query, at.UTC())
}

// Delete removes a fee period.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PeriodRepository) queryPeriods(ctx context.Context, query string, args ...any) ([]feeperiod.FeePeriod, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []feeperiod.FeePeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		if period != nil {
			result = append(result, *period)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*feeperiod.FeePeriod, error) {
	var period feeperiod.FeePeriod
	err := row.Scan(
		&period.ID,
		&period.Name,
		&period.Category,
		&period.StartDate,
		&period.EndDate,
		&period.UnitRate,
		&period.BillingMode,
		&period.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	period.StartDate = period.StartDate.UTC()
	period.EndDate = period.EndDate.UTC()
	period.CreatedAt = period.CreatedAt.UTC()
	return &period, nil
}
