package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/intention-scheduler/internal/application"
)

type massService interface {
	GetMass(ctx context.Context, id string) (application.Mass, error)
	ListMasses(ctx context.Context, start, end time.Time) ([]application.Mass, error)
	UpdateMass(ctx context.Context, id string, input application.MassUpdateInput) (application.Mass, error)
}

type MassHandler struct {
	service   massService
	responder responder
}

func NewMassHandler(service massService, logger *slog.Logger) *MassHandler {
	return &MassHandler{service: service, responder: newResponder(logger)}
}

// List returns the masses within the requested date range.
func (h *MassHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	start, ok := parseDayParam(query.Get("start"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	end, ok := parseDayParam(query.Get("end"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	masses, err := h.service.ListMasses(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMassesResponse{Masses: toMassDTOs(masses)})
}

// Get returns one mass.
func (h *MassHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	massID, ok := MassIDFromContext(r.Context())
	if !ok || strings.TrimSpace(massID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMassID)
		return
	}

	mass, err := h.service.GetMass(r.Context(), massID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMassDTO(mass))
}

// Update applies a manual edit to one mass.
func (h *MassHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	massID, ok := MassIDFromContext(r.Context())
	if !ok || strings.TrimSpace(massID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMassID)
		return
	}

	var req massUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	mass, err := h.service.UpdateMass(r.Context(), massID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMassDTO(mass))
}

type massUpdateRequest struct {
	Date        string  `json:"date"`
	CelebrantID *string `json:"celebrant_id"`
	Status      string  `json:"status"`
}

func (r massUpdateRequest) toInput() application.MassUpdateInput {
	return application.MassUpdateInput{
		Date:        parseDay(r.Date),
		CelebrantID: r.CelebrantID,
		Status:      application.MassStatus(r.Status),
	}
}

type listMassesResponse struct {
	Masses []massDTO `json:"masses"`
}

// parseDayParam parses a query parameter day value. An empty value yields the
// zero time so the service can report the missing bound.
func parseDayParam(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, true
	}
	day, err := time.ParseInLocation(dayFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
