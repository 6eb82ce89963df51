package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"household-registry/internal/audit"
	"household-registry/internal/auth"
	feeperiodapp "household-registry/internal/feeperiod/application"
	feeperiod "household-registry/internal/feeperiod/domain"
	"household-registry/internal/fees/application"
	fees "household-registry/internal/fees/domain"
	"household-registry/internal/fees/interfaces"
	"household-registry/internal/observability/metrics"
	registry "household-registry/internal/registry/domain"
)

// Handler provides fee ledger HTTP endpoints: read access under /api/v1/fees,
// manual collections under /api/v1/payments, and per-period report exports.
type Handler struct {
	query       *application.QueryService
	payments    *application.PaymentService
	periods     *feeperiodapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(query *application.QueryService, payments *application.PaymentService, periods *feeperiodapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if query == nil {
		return nil, errors.New("fees handler: nil query service")
	}
	if payments == nil {
		return nil, errors.New("fees handler: nil payment service")
	}
	if periods == nil {
		return nil, errors.New("fees handler: nil period service")
	}
	return &Handler{query: query, payments: payments, periods: periods, auditLogger: auditLogger}, nil
}

// ServeHTTP routes fee ledger requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/fees/calculate":
		h.handleCalculate(w, r)
	case path == "/api/v1/fees/stats":
		h.handleStats(w, r)
	case path == "/api/v1/fees/obligations":
		h.handleObligations(w, r)
	case path == "/api/v1/payments":
		h.handlePayments(w, r)
	case strings.HasPrefix(path, "/api/v1/fee-periods/") && strings.Contains(path, "/report."):
		h.handleReport(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	householdID := r.URL.Query().Get("household_id")
	periodID := r.URL.Query().Get("period_id")
	breakdown, err := h.query.CalculateFee(r.Context(), householdID, periodID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.query.Stats(r.Context(), r.URL.Query().Get("period_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleObligations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var (
		obligations []fees.Obligation
		err         error
	)
	switch {
	case r.URL.Query().Get("household_id") != "":
		obligations, err = h.query.ListByHousehold(r.Context(), r.URL.Query().Get("household_id"))
	case r.URL.Query().Get("period_id") != "":
		obligations, err = h.query.ListByPeriod(r.Context(), r.URL.Query().Get("period_id"))
	default:
		http.Error(w, "household_id or period_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	result := make([]obligationResponse, 0, len(obligations))
	for i := range obligations {
		result = append(result, toObligationResponse(&obligations[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req application.RecordPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actor := auth.RoleFromContext(r.Context())
		payment, err := h.payments.RecordPayment(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		metrics.IncPaymentRecorded()
		writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
		h.logAudit(r, "payment.record", payment.ID, payment.HouseholdID)
	case http.MethodGet:
		payments, err := h.query.ListPayments(r.Context(), r.URL.Query().Get("period_id"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		result := make([]paymentResponse, 0, len(payments))
		for i := range payments {
			result = append(result, toPaymentResponse(&payments[i]))
		}
		writeJSON(w, http.StatusOK, result)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/fee-periods/")
	periodID, suffix, ok := strings.Cut(rest, "/report.")
	if !ok || periodID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	started := time.Now()
	period, err := h.periods.GetByID(r.Context(), periodID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	stats, err := h.query.Stats(r.Context(), periodID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	obligations, err := h.query.ListByPeriod(r.Context(), periodID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	switch suffix {
	case "pdf":
		data, err := interfaces.BuildPeriodReportPDF(period, stats, obligations)
		metrics.ObserveFeeExport("pdf", err, time.Since(started))
		if err != nil {
			http.Error(w, "report build error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-report.pdf", periodID))
		_, _ = w.Write(data)
	case "xlsx":
		payments, err := h.query.ListPayments(r.Context(), periodID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		data, err := interfaces.BuildPeriodReportXLSX(period, stats, obligations, payments)
		metrics.ObserveFeeExport("xlsx", err, time.Since(started))
		if err != nil {
			http.Error(w, "report build error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-report.xlsx", periodID))
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.logAudit(r, "fee_report.export."+suffix, periodID, "")
}

type obligationResponse struct {
	ID            string  `json:"id"`
	HouseholdID   string  `json:"household_id"`
	PeriodID      string  `json:"period_id"`
	Amount        float64 `json:"amount"`
	CoveredMonths []int   `json:"covered_months"`
	Collector     string  `json:"collector,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toObligationResponse(obligation *fees.Obligation) obligationResponse {
	return obligationResponse{
		ID:            obligation.ID,
		HouseholdID:   obligation.HouseholdID,
		PeriodID:      obligation.PeriodID,
		Amount:        obligation.Amount,
		CoveredMonths: obligation.CoveredMonths,
		Collector:     obligation.Collector,
		CreatedAt:     obligation.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     obligation.UpdatedAt.Format(time.RFC3339),
	}
}

type paymentResponse struct {
	ID          string  `json:"id"`
	HouseholdID string  `json:"household_id"`
	PeriodID    string  `json:"period_id"`
	Amount      float64 `json:"amount"`
	Collector   string  `json:"collector"`
	Note        string  `json:"note,omitempty"`
	PaidAt      string  `json:"paid_at"`
}

func toPaymentResponse(payment *fees.Payment) paymentResponse {
	return paymentResponse{
		ID:          payment.ID,
		HouseholdID: payment.HouseholdID,
		PeriodID:    payment.PeriodID,
		Amount:      payment.Amount,
		Collector:   payment.Collector,
		Note:        payment.Note,
		PaidAt:      payment.PaidAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, registry.ErrHouseholdNotFound):
		http.Error(w, "household not found", http.StatusNotFound)
	case errors.Is(err, feeperiod.ErrPeriodNotFound):
		http.Error(w, "fee period not found", http.StatusNotFound)
	case errors.Is(err, fees.ErrObligationNotFound):
		http.Error(w, "obligation not found", http.StatusNotFound)
	case errors.Is(err, fees.ErrEmptyHouseholdID),
		errors.Is(err, fees.ErrEmptyPeriodID),
		errors.Is(err, fees.ErrNonPositivePayment),
		errors.Is(err, fees.ErrEmptyCollector):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "fee ledger error", http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, action, resourceID, householdID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "fee_ledger",
		ResourceID:   resourceID,
		HouseholdID:  householdID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}
