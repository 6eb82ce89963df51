package registry

import (
	"strings"
	"time"
)

// Household is a registered household record.
type Household struct {
	ID        string
	Code      string
	Address   string
	OwnerName string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces household invariants.
func (h *Household) Validate() error {
	if h == nil || h.ID == "" {
		return ErrEmptyHouseholdID
	}
	if strings.TrimSpace(h.Code) == "" {
		return ErrEmptyHouseholdCode
	}
	if strings.TrimSpace(h.OwnerName) == "" {
		return ErrEmptyOwnerName
	}
	return nil
}
