package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"household-registry/internal/audit"
	"household-registry/internal/auth"
	registryapp "household-registry/internal/registry/application"
	registry "household-registry/internal/registry/domain"
)

// Handler provides household and citizen HTTP endpoints under
// /api/v1/households and /api/v1/citizens.
type Handler struct {
	service     *registryapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *registryapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("registry handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes registry requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/households":
		h.handleHouseholds(w, r)
	case strings.HasPrefix(path, "/api/v1/households/"):
		h.handleHouseholdByID(w, r, strings.TrimPrefix(path, "/api/v1/households/"))
	case path == "/api/v1/citizens":
		h.handleCitizens(w, r)
	case strings.HasPrefix(path, "/api/v1/citizens/"):
		h.handleCitizenByID(w, r, strings.TrimPrefix(path, "/api/v1/citizens/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleHouseholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req registryapp.CreateHouseholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actor := auth.RoleFromContext(r.Context())
		household, err := h.service.CreateHousehold(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toHouseholdResponse(household))
		h.logAudit(r, "household.create", "household", household.ID, household.ID)
	case http.MethodGet:
		households, err := h.service.ListHouseholds(r.Context())
		if err != nil {
			http.Error(w, "list households error", http.StatusInternalServerError)
			return
		}
		result := make([]householdResponse, 0, len(households))
		for i := range households {
			result = append(result, toHouseholdResponse(&households[i]))
		}
		writeJSON(w, http.StatusOK, result)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleHouseholdByID(w http.ResponseWriter, r *http.Request, rest string) {
	// /api/v1/households/{id}/citizens lists the members.
	if id, ok := strings.CutSuffix(rest, "/citizens"); ok {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		citizens, err := h.service.ListCitizens(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		result := make([]citizenResponse, 0, len(citizens))
		for i := range citizens {
			result = append(result, toCitizenResponse(&citizens[i]))
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	switch r.Method {
	case http.MethodGet:
		household, err := h.service.GetHousehold(r.Context(), rest)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHouseholdResponse(household))
	case http.MethodPut:
		var req registryapp.UpdateHouseholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actor := auth.RoleFromContext(r.Context())
		household, err := h.service.UpdateHousehold(r.Context(), actor, rest, req)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHouseholdResponse(household))
		h.logAudit(r, "household.update", "household", household.ID, household.ID)
	case http.MethodDelete:
		actor := auth.RoleFromContext(r.Context())
		if err := h.service.DeleteHousehold(r.Context(), actor, rest); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "household.delete", "household", rest, rest)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCitizens(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req registryapp.CreateCitizenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actor := auth.RoleFromContext(r.Context())
		citizen, err := h.service.CreateCitizen(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCitizenResponse(citizen))
		h.logAudit(r, "citizen.create", "citizen", citizen.ID, citizen.HouseholdID)
	case http.MethodGet:
		householdID := r.URL.Query().Get("household_id")
		citizens, err := h.service.ListCitizens(r.Context(), householdID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		result := make([]citizenResponse, 0, len(citizens))
		for i := range citizens {
			result = append(result, toCitizenResponse(&citizens[i]))
		}
		writeJSON(w, http.StatusOK, result)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCitizenByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		citizen, err := h.service.GetCitizen(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCitizenResponse(citizen))
	case http.MethodPut:
		var req registryapp.UpdateCitizenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actor := auth.RoleFromContext(r.Context())
		citizen, err := h.service.UpdateCitizen(r.Context(), actor, id, req)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCitizenResponse(citizen))
		h.logAudit(r, "citizen.update", "citizen", citizen.ID, citizen.HouseholdID)
	case http.MethodDelete:
		actor := auth.RoleFromContext(r.Context())
		if err := h.service.DeleteCitizen(r.Context(), actor, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "citizen.delete", "citizen", id, "")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type householdResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Address   string `json:"address"`
	OwnerName string `json:"owner_name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toHouseholdResponse(household *registry.Household) householdResponse {
	return householdResponse{
		ID:        household.ID,
		Code:      household.Code,
		Address:   household.Address,
		OwnerName: household.OwnerName,
		Active:    household.Active,
		CreatedAt: household.CreatedAt.Format(time.RFC3339),
		UpdatedAt: household.UpdatedAt.Format(time.RFC3339),
	}
}

type citizenResponse struct {
	ID            string `json:"id"`
	HouseholdID   string `json:"household_id"`
	FullName      string `json:"full_name"`
	DateOfBirth   string `json:"date_of_birth"`
	Status        string `json:"status"`
	SuspendedFrom string `json:"suspended_from,omitempty"`
	SuspendedTo   string `json:"suspended_to,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toCitizenResponse(citizen *registry.Citizen) citizenResponse {
	resp := citizenResponse{
		ID:          citizen.ID,
		HouseholdID: citizen.HouseholdID,
		FullName:    citizen.FullName,
		DateOfBirth: citizen.DateOfBirth.Format("2006-01-02"),
		Status:      citizen.Status,
		CreatedAt:   citizen.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   citizen.UpdatedAt.Format(time.RFC3339),
	}
	if !citizen.SuspendedFrom.IsZero() {
		resp.SuspendedFrom = citizen.SuspendedFrom.Format("2006-01-02")
	}
	if !citizen.SuspendedTo.IsZero() {
		resp.SuspendedTo = citizen.SuspendedTo.Format("2006-01-02")
	}
	return resp
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
	case errors.Is(err, registry.ErrCitizenNotFound):
		http.Error(w, "citizen not found", http.StatusNotFound)
	case errors.Is(err, registry.ErrEmptyHouseholdID),
		errors.Is(err, registry.ErrEmptyHouseholdCode),
		errors.Is(err, registry.ErrEmptyOwnerName),
		errors.Is(err, registry.ErrEmptyCitizenID),
		errors.Is(err, registry.ErrEmptyFullName),
		errors.Is(err, registry.ErrInvalidDateOfBirth),
		errors.Is(err, registry.ErrInvalidStatus),
		errors.Is(err, registry.ErrInvalidSuspension):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "registry error", http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, householdID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		HouseholdID:  householdID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}
