package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	fees "household-registry/internal/fees/domain"
)

const defaultObligationsTable = "fee_obligations"

// ObligationRepository is a Postgres implementation of the fee ledger.
// Uniqueness per (household, period) is logical: the upsert updates first
// and inserts only when no row matched, so no unique index is required.
type ObligationRepository struct {
	db    *sql.DB
	table string
}

// NewObligationRepository constructs a repository.
func NewObligationRepository(db *sql.DB, opts ...ObligationOption) *ObligationRepository {
	repo := &ObligationRepository{db: db, table: defaultObligationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ObligationOption configures the repository.
type ObligationOption func(*ObligationRepository)

// WithObligationsTable overrides the default table name.
func WithObligationsTable(table string) ObligationOption {
	return func(repo *ObligationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// UpsertComputed writes the computed fields of an obligation, creating the
// row when absent. The collector column is never touched by the update.
func (r *ObligationRepository) UpsertComputed(ctx context.Context, obligation *fees.Obligation) error {
	if r == nil || r.db == nil {
		return errors.New("obligation repo: nil db")
	}
	if obligation == nil {
		return errors.New("obligation repo: nil obligation")
	}
	months := encodeMonths(obligation.CoveredMonths)
	update := fmt.Sprintf(`
UPDATE %s
SET amount = $1, covered_months = $2, updated_at = $3
WHERE household_id = $4 AND period_id = $5`, r.table)
	res, err := r.db.ExecContext(ctx, update,
		obligation.Amount, months, obligation.UpdatedAt,
		obligation.HouseholdID, obligation.PeriodID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	insert := fmt.Sprintf(`
INSERT INTO %s (
	id, household_id, period_id, amount, covered_months, collector, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, r.table)
	_, err = r.db.ExecContext(ctx, insert,
		obligation.ID, obligation.HouseholdID, obligation.PeriodID,
		obligation.Amount, months, obligation.Collector,
		obligation.CreatedAt, obligation.UpdatedAt)
	return err
}

// GetByHouseholdPeriod loads one obligation; returns nil when absent.
func (r *ObligationRepository) GetByHouseholdPeriod(ctx context.Context, householdID, periodID string) (*fees.Obligation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, period_id, amount, covered_months, collector, created_at, updated_at
FROM %s
WHERE household_id = $1 AND period_id = $2
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, householdID, periodID)
	return scanObligation(row)
}

// ListByHousehold returns the household's obligations ordered by period.
func (r *ObligationRepository) ListByHousehold(ctx context.Context, householdID string) ([]fees.Obligation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, period_id, amount, covered_months, collector, created_at, updated_at
FROM %s
WHERE household_id = $1
ORDER BY period_id ASC`, r.table)
	return r.queryObligations(ctx, query, householdID)
}

// ListByPeriod returns every obligation against a period ordered by household.
func (r *ObligationRepository) ListByPeriod(ctx context.Context, periodID string) ([]fees.Obligation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, period_id, amount, covered_months, collector, created_at, updated_at
FROM %s
WHERE period_id = $1
ORDER BY household_id ASC`, r.table)
	return r.queryObligations(ctx, query, periodID)
}

// SetCollector stamps the collector onto an existing obligation.
func (r *ObligationRepository) SetCollector(ctx context.Context, householdID, periodID, collector string) error {
	if r == nil || r.db == nil {
		return errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET collector = $1
WHERE household_id = $2 AND period_id = $3`, r.table)
	res, err := r.db.ExecContext(ctx, query, collector, householdID, periodID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fees.ErrObligationNotFound
	}
	return nil
}

// DeleteAllForHousehold removes every obligation of the household.
func (r *ObligationRepository) DeleteAllForHousehold(ctx context.Context, householdID string) error {
	if r == nil || r.db == nil {
		return errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE household_id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, householdID)
	return err
}

// Totals aggregates obligations; an empty periodID totals everything.
func (r *ObligationRepository) Totals(ctx context.Context, periodID string) (fees.ObligationTotals, error) {
	var totals fees.ObligationTotals
	if r == nil || r.db == nil {
		return totals, errors.New("obligation repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0), COUNT(*), COUNT(DISTINCT household_id) FROM %s`, r.table)
	var args []any
	if periodID != "" {
		query += " WHERE period_id = $1"
		args = append(args, periodID)
	}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&totals.TotalAmount, &totals.Count, &totals.DistinctHouseholds); err != nil {
		return fees.ObligationTotals{}, err
	}
	return totals, nil
}

func (r *ObligationRepository) queryObligations(ctx context.Context, query string, args ...any) ([]fees.Obligation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []fees.Obligation
	for rows.Next() {
		obligation, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		if obligation != nil {
			result = append(result, *obligation)
		}
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (*fees.Obligation, error) {
	var obligation fees.Obligation
	var months string
	var collector sql.NullString
	err := row.Scan(
		&obligation.ID, &obligation.HouseholdID, &obligation.PeriodID,
		&obligation.Amount, &months, &collector,
		&obligation.CreatedAt, &obligation.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	obligation.CoveredMonths, err = decodeMonths(months)
	if err != nil {
		return nil, err
	}
	if collector.Valid {
		obligation.Collector = collector.String
	}
	return &obligation, nil
}

// encodeMonths stores covered months as a comma separated list.
func encodeMonths(months []int) string {
	if len(months) == 0 {
		return ""
	}
	parts := make([]string, 0, len(months))
	for _, month := range months {
		parts = append(parts, strconv.Itoa(month))
	}
	return strings.Join(parts, ",")
}

func decodeMonths(value string) ([]int, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	months := make([]int, 0, len(parts))
	for _, part := range parts {
		month, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("obligation repo: bad covered month %q: %w", part, err)
		}
		months = append(months, month)
	}
	return months, nil
}
