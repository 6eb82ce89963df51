package apihttp

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const timeLayout = time.RFC3339

// ExportObligationsCSVHandler streams the fee ledger for one period as CSV.
// It reads the tables directly so a long export never holds application
// level locks or caches.
type ExportObligationsCSVHandler struct {
	db *sql.DB
}

// NewExportObligationsCSVHandler constructs the handler.
func NewExportObligationsCSVHandler(db *sql.DB) *ExportObligationsCSVHandler {
	return &ExportObligationsCSVHandler{db: db}
}

// ServeHTTP handles GET /api/v1/exports/obligations.csv.
func (h *ExportObligationsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		http.Error(w, "period_id is required", http.StatusBadRequest)
		return
	}

	rows, err := queryObligations(r.Context(), h.db, periodID)
	if err != nil {
		http.Error(w, "query obligations error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"household_id",
		"household_code",
		"owner_name",
		"period_id",
		"amount",
		"covered_months",
		"collector",
		"created_at",
		"updated_at",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.HouseholdID,
			row.HouseholdCode,
			row.OwnerName,
			row.PeriodID,
			formatFloat(row.Amount),
			row.CoveredMonths,
			row.Collector,
			formatTime(row.CreatedAt),
			formatTime(row.UpdatedAt),
		})
	}
	writer.Flush()
}

// ExportPaymentsCSVHandler streams manual collections as CSV.
type ExportPaymentsCSVHandler struct {
	db *sql.DB
}

// NewExportPaymentsCSVHandler constructs the handler.
func NewExportPaymentsCSVHandler(db *sql.DB) *ExportPaymentsCSVHandler {
	return &ExportPaymentsCSVHandler{db: db}
}

// ServeHTTP handles GET /api/v1/exports/payments.csv.
func (h *ExportPaymentsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	periodID := r.URL.Query().Get("period_id")

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	rows, err := queryPayments(r.Context(), h.db, periodID, from, to)
	if err != nil {
		http.Error(w, "query payments error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"payment_id",
		"household_id",
		"period_id",
		"amount",
		"collector",
		"note",
		"paid_at",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.ID,
			row.HouseholdID,
			row.PeriodID,
			formatFloat(row.Amount),
			row.Collector,
			row.Note,
			formatTime(row.PaidAt),
		})
	}
	writer.Flush()
}

type obligationRow struct {
	HouseholdID   string
	HouseholdCode string
	OwnerName     string
	PeriodID      string
	Amount        float64
	CoveredMonths string
	Collector     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type paymentRow struct {
	ID          string
	HouseholdID string
	PeriodID    string
	Amount      float64
	Collector   string
	Note        string
	PaidAt      time.Time
}

func queryObligations(ctx context.Context, db *sql.DB, periodID string) ([]obligationRow, error) {
	query := `
SELECT o.household_id, COALESCE(h.code, ''), COALESCE(h.owner_name, ''),
	o.period_id, o.amount, o.covered_months, COALESCE(o.collector, ''),
	o.created_at, o.updated_at
FROM fee_obligations o
LEFT JOIN households h ON h.id = o.household_id
WHERE o.period_id = $1
ORDER BY o.household_id ASC`
	rows, err := db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []obligationRow
	for rows.Next() {
		var row obligationRow
		if err := rows.Scan(
			&row.HouseholdID, &row.HouseholdCode, &row.OwnerName,
			&row.PeriodID, &row.Amount, &row.CoveredMonths, &row.Collector,
			&row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func queryPayments(ctx context.Context, db *sql.DB, periodID string, from, to time.Time) ([]paymentRow, error) {
	query := `
SELECT id, household_id, period_id, amount, collector, COALESCE(note, ''), paid_at
FROM fee_payments
WHERE 1=1`
	args := []any{}
	if periodID != "" {
		args = append(args, periodID)
		query += ` AND period_id = $` + strconv.Itoa(len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND paid_at >= $` + strconv.Itoa(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += ` AND paid_at < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY paid_at ASC`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []paymentRow
	for rows.Next() {
		var row paymentRow
		if err := rows.Scan(
			&row.ID, &row.HouseholdID, &row.PeriodID,
			&row.Amount, &row.Collector, &row.Note, &row.PaidAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
