package notify

import "context"

// AlertMessage represents an operational alert payload.
type AlertMessage struct {
	HouseholdID string            `json:"household_id"`
	Consumer    string            `json:"consumer"`
	Operation   string            `json:"operation"`
	Reason      string            `json:"reason"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Notifier sends alerts.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// MultiNotifier fans an alert out to several notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the alert to every notifier. Delivery is best effort;
// the last error wins.
func (m *MultiNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if m == nil {
		return nil
	}
	var lastErr error
	for _, notifier := range m.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, msg); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
