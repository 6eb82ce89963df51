package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"household-registry/internal/audit"
	"household-registry/internal/auth"
	feeperiodapp "household-registry/internal/feeperiod/application"
	feeperiod "household-registry/internal/feeperiod/domain"
)

// Handler provides fee period HTTP endpoints under /api/v1/fee-periods.
type Handler struct {
	service     *feeperiodapp.Service
	reports     http.Handler
	auditLogger audit.Logger
}

// NewHandler constructs a handler. The reports handler, when set, serves
// /api/v1/fee-periods/{id}/report.* routes.
func NewHandler(service *feeperiodapp.Service, reports http.Handler, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("feeperiod handler: nil service")
	}
	return &Handler{service: service, reports: reports, auditLogger: auditLogger}, nil
}

// ServeHTTP routes fee period requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/fee-periods" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if strings.HasPrefix(path, "/api/v1/fee-periods/") {
		rest := strings.TrimPrefix(path, "/api/v1/fee-periods/")
		if strings.Contains(rest, "/report.") {
			if h.reports == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.reports.ServeHTTP(w, r)
			return
		}
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req feeperiodapp.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	actor := auth.RoleFromContext(r.Context())
	period, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toPeriodResponse(period))
	h.logAudit(r, "fee_period.create", period.ID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	periods, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, "list fee periods error", http.StatusInternalServerError)
		return
	}
	result := make([]periodResponse, 0, len(periods))
	for i := range periods {
		result = append(result, toPeriodResponse(&periods[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		period, err := h.service.GetByID(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toPeriodResponse(period))
	case http.MethodDelete:
		actor := auth.RoleFromContext(r.Context())
		if err := h.service.Delete(r.Context(), actor, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "fee_period.delete", id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type periodResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	UnitRate    float64 `json:"unit_rate"`
	BillingMode string  `json:"billing_mode"`
	CreatedAt   string  `json:"created_at"`
}

func toPeriodResponse(period *feeperiod.FeePeriod) periodResponse {
	return periodResponse{
		ID:          period.ID,
		Name:        period.Name,
		Category:    period.Category,
		StartDate:   period.StartDate.Format("2006-01-02"),
		EndDate:     period.EndDate.Format("2006-01-02"),
		UnitRate:    period.UnitRate,
		BillingMode: period.BillingMode,
		CreatedAt:   period.CreatedAt.Format(time.RFC3339),
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, feeperiod.ErrPeriodNotFound):
		http.Error(w, "fee period not found", http.StatusNotFound)
	case errors.Is(err, feeperiod.ErrEmptyID),
		errors.Is(err, feeperiod.ErrEmptyName),
		errors.Is(err, feeperiod.ErrInvalidCategory),
		errors.Is(err, feeperiod.ErrInvalidBillingMode),
		errors.Is(err, feeperiod.ErrInvalidDateRange),
		errors.Is(err, feeperiod.ErrEndBeforeStart),
		errors.Is(err, feeperiod.ErrNegativeRate),
		errors.Is(err, feeperiod.ErrNonPositiveRate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "fee period error", http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, action, periodID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "fee_period",
		ResourceID:   periodID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}
