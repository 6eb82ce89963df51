package feeperiod

import "errors"

var (
	// ErrEmptyID is returned when the period id is empty.
	ErrEmptyID = errors.New("feeperiod: empty id")
	// ErrEmptyName is returned when the display name is empty.
	ErrEmptyName = errors.New("feeperiod: empty name")
	// ErrInvalidCategory is returned when category is unsupported.
	ErrInvalidCategory = errors.New("feeperiod: invalid category")
	// ErrInvalidBillingMode is returned when billing mode is unsupported.
	ErrInvalidBillingMode = errors.New("feeperiod: invalid billing mode")
	// ErrInvalidDateRange is returned when a date bound is missing.
	ErrInvalidDateRange = errors.New("feeperiod: invalid date range")
	// ErrEndBeforeStart is returned when the end date precedes the start date.
	ErrEndBeforeStart = errors.New("feeperiod: end date before start date")
	// ErrNegativeRate is returned when the unit rate is negative.
	ErrNegativeRate = errors.New("feeperiod: negative unit rate")
	// ErrNonPositiveRate is returned when a mandatory period has no positive rate.
	ErrNonPositiveRate = errors.New("feeperiod: mandatory period requires positive unit rate")
	// ErrPeriodNotFound is returned when a fee period cannot be found.
	ErrPeriodNotFound = errors.New("feeperiod: not found")
)
