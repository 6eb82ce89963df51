package interfaces

import (
	"context"
	"errors"
	"log"
	"time"

	"household-registry/internal/fees/application"
	"household-registry/internal/observability/metrics"
	"household-registry/internal/observability/notify"
	"household-registry/internal/registry/application/events"
)

// RegistryChangeHandler bridges household and citizen change notifications
// to the fee ledger recalculation service. Failures are logged and counted;
// they never propagate back to the mutation that triggered them.
type RegistryChangeHandler struct {
	recalc   *application.RecalculationService
	logger   *log.Logger
	notifier notify.Notifier
}

// HandlerOption customizes the handler.
type HandlerOption func(*RegistryChangeHandler)

// WithNotifier routes recalculation failures to an alert notifier.
func WithNotifier(n notify.Notifier) HandlerOption {
	return func(h *RegistryChangeHandler) {
		h.notifier = n
	}
}

// NewRegistryChangeHandler constructs the handler.
func NewRegistryChangeHandler(recalc *application.RecalculationService, logger *log.Logger, opts ...HandlerOption) (*RegistryChangeHandler, error) {
	if recalc == nil {
		return nil, errors.New("registry change handler: nil recalculation service")
	}
	if logger == nil {
		logger = log.Default()
	}
	h := &RegistryChangeHandler{recalc: recalc, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

func (h *RegistryChangeHandler) alert(ctx context.Context, consumer, householdID, operation string, err error) {
	if h.notifier == nil || err == nil {
		return
	}
	msg := notify.AlertMessage{
		HouseholdID: householdID,
		Consumer:    consumer,
		Operation:   operation,
		Reason:      err.Error(),
	}
	if notifyErr := h.notifier.Notify(ctx, msg); notifyErr != nil {
		h.logger.Printf("alert delivery failed: household=%s err=%v", householdID, notifyErr)
	}
}

// HandleHouseholdChanged handles household change notifications.
func (h *RegistryChangeHandler) HandleHouseholdChanged(ctx context.Context, event any) error {
	if h == nil {
		return errors.New("registry change handler: nil handler")
	}

	var evt events.HouseholdChanged
	switch e := event.(type) {
	case events.HouseholdChanged:
		evt = e
	case *events.HouseholdChanged:
		if e == nil {
			return nil
		}
		evt = *e
	default:
		return nil
	}

	started := time.Now()
	err := h.recalc.HandleHouseholdChanged(ctx, evt)
	metrics.ObserveRecalculation("household."+evt.Operation, err, time.Since(started))
	metrics.ObserveConsumerLag("fees.household", time.Since(evt.OccurredAt))
	if err != nil {
		h.logger.Printf("fee recalculation failed: household=%s op=%s err=%v", evt.HouseholdID, evt.Operation, err)
		h.alert(ctx, "fees.household", evt.HouseholdID, evt.Operation, err)
	}
	return err
}

// HandleCitizenChanged handles citizen change notifications.
func (h *RegistryChangeHandler) HandleCitizenChanged(ctx context.Context, event any) error {
	if h == nil {
		return errors.New("registry change handler: nil handler")
	}

	var evt events.CitizenChanged
	switch e := event.(type) {
	case events.CitizenChanged:
		evt = e
	case *events.CitizenChanged:
		if e == nil {
			return nil
		}
		evt = *e
	default:
		return nil
	}

	started := time.Now()
	err := h.recalc.HandleCitizenChanged(ctx, evt)
	metrics.ObserveRecalculation("citizen."+evt.Operation, err, time.Since(started))
	metrics.ObserveConsumerLag("fees.citizen", time.Since(evt.OccurredAt))
	if err != nil {
		h.logger.Printf("fee recalculation failed: household=%s citizen=%s op=%s err=%v", evt.HouseholdID, evt.CitizenID, evt.Operation, err)
		h.alert(ctx, "fees.citizen", evt.HouseholdID, evt.Operation, err)
	}
	return err
}
