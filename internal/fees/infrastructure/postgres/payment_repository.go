package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fees "household-registry/internal/fees/domain"
)

const defaultPaymentsTable = "fee_payments"

// PaymentRepository is a Postgres implementation for manual collections.
type PaymentRepository struct {
	db    *sql.DB
	table string
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(db *sql.DB, opts ...PaymentOption) *PaymentRepository {
	repo := &PaymentRepository{db: db, table: defaultPaymentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PaymentOption configures the repository.
type PaymentOption func(*PaymentRepository)

// WithPaymentsTable overrides the default table name.
func WithPaymentsTable(table string) PaymentOption {
	return func(repo *PaymentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create appends a payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *fees.Payment) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	if payment == nil {
		return errors.New("payment repo: nil payment")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, household_id, period_id, amount, collector, note, paid_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.HouseholdID, payment.PeriodID,
		payment.Amount, payment.Collector, payment.Note, payment.PaidAt)
	return err
}

// ListByPeriod returns payments against a period, newest first.
func (r *PaymentRepository) ListByPeriod(ctx context.Context, periodID string) ([]fees.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, period_id, amount, collector, note, paid_at
FROM %s
WHERE period_id = $1
ORDER BY paid_at DESC`, r.table)
	return r.queryPayments(ctx, query, periodID)
}

// ListByHousehold returns a household's payments, newest first.
func (r *PaymentRepository) ListByHousehold(ctx context.Context, householdID string) ([]fees.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, household_id, period_id, amount, collector, note, paid_at
FROM %s
WHERE household_id = $1
ORDER BY paid_at DESC`, r.table)
	return r.queryPayments(ctx, query, householdID)
}

// SumCollected totals payment amounts; an empty periodID totals everything.
func (r *PaymentRepository) SumCollected(ctx context.Context, periodID string) (float64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("payment repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s`, r.table)
	args := []any{}
	if periodID != "" {
		query += ` WHERE period_id = $1`
		args = append(args, periodID)
	}
	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// CountDistinctHouseholds counts households with at least one payment.
func (r *PaymentRepository) CountDistinctHouseholds(ctx context.Context, periodID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("payment repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT household_id) FROM %s`, r.table)
	args := []any{}
	if periodID != "" {
		query += ` WHERE period_id = $1`
		args = append(args, periodID)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]fees.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []fees.Payment
	for rows.Next() {
		var payment fees.Payment
		var note sql.NullString
		if err := rows.Scan(
			&payment.ID, &payment.HouseholdID, &payment.PeriodID,
			&payment.Amount, &payment.Collector, &note, &payment.PaidAt); err != nil {
			return nil, err
		}
		if note.Valid {
			payment.Note = note.String
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
