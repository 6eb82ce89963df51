package feeperiod

import (
	"strings"
	"time"
)

const (
	CategoryMandatory = "mandatory"
	CategoryVoluntary = "voluntary"
)

const (
	BillingPerMonth      = "per_month"
	BillingFlatPerPeriod = "flat_per_period"
)

// FeePeriod is an administratively defined billing policy window.
type FeePeriod struct {
	ID          string
	Name        string
	Category    string
	StartDate   time.Time
	EndDate     time.Time
	UnitRate    float64
	BillingMode string
	CreatedAt   time.Time
}

// NewFeePeriod builds and validates a fee period. A voluntary period with
// no rate supplied defaults to zero.
func NewFeePeriod(id, name, category string, start, end time.Time, unitRate float64, billingMode string) (*FeePeriod, error) {
	period := &FeePeriod{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Category:    category,
		StartDate:   start.UTC(),
		EndDate:     end.UTC(),
		UnitRate:    unitRate,
		BillingMode: billingMode,
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return period, nil
}

// Validate enforces the fee period invariants.
func (p *FeePeriod) Validate() error {
	if p == nil || p.ID == "" {
		return ErrEmptyID
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if _, ok := NormalizeCategory(p.Category); !ok {
		return ErrInvalidCategory
	}
	if _, ok := NormalizeBillingMode(p.BillingMode); !ok {
		return ErrInvalidBillingMode
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ErrInvalidDateRange
	}
	if p.EndDate.Before(p.StartDate) {
		return ErrEndBeforeStart
	}
	if p.UnitRate < 0 {
		return ErrNegativeRate
	}
	if p.Category == CategoryMandatory && p.UnitRate <= 0 {
		return ErrNonPositiveRate
	}
	return nil
}

// OpenAt reports whether the period covers the given instant.
func (p *FeePeriod) OpenAt(t time.Time) bool {
	if p == nil {
		return false
	}
	t = t.UTC()
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// CoveredMonths returns the calendar month numbers spanned by the period,
// in order, deduplicated, each in 1..12.
func (p *FeePeriod) CoveredMonths() []int {
	if p == nil || p.StartDate.IsZero() || p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
		return nil
	}
	var months []int
	seen := make(map[int]bool, 12)
	cursor := time.Date(p.StartDate.Year(), p.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(p.EndDate.Year(), p.EndDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) && len(months) < 12 {
		month := int(cursor.Month())
		if !seen[month] {
			seen[month] = true
			months = append(months, month)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

// NormalizeCategory validates and normalizes a category string.
func NormalizeCategory(value string) (string, bool) {
	switch value {
	case CategoryMandatory, CategoryVoluntary:
		return value, true
	default:
		return "", false
	}
}

// NormalizeBillingMode validates and normalizes a billing mode string.
func NormalizeBillingMode(value string) (string, bool) {
	switch value {
	case BillingPerMonth, BillingFlatPerPeriod:
		return value, true
	default:
		return "", false
	}
}
