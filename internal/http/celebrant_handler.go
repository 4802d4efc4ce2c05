package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/intention-scheduler/internal/application"
)

var errInvalidUnavailableDayID = errors.New("invalid unavailable day id")

type celebrantService interface {
	CreateCelebrant(ctx context.Context, input application.CelebrantInput) (application.Celebrant, error)
	UpdateCelebrant(ctx context.Context, id string, input application.CelebrantInput) (application.Celebrant, error)
	ListCelebrants(ctx context.Context) ([]application.Celebrant, error)
	AddUnavailableDay(ctx context.Context, celebrantID string, input application.UnavailableDayInput) (application.UnavailableDay, error)
	RemoveUnavailableDay(ctx context.Context, id string) error
	AddSpecialDay(ctx context.Context, input application.SpecialDayInput) (application.SpecialDay, error)
	ListSpecialDays(ctx context.Context) ([]application.SpecialDay, error)
}

type CelebrantHandler struct {
	service   celebrantService
	responder responder
}

func NewCelebrantHandler(service celebrantService, logger *slog.Logger) *CelebrantHandler {
	return &CelebrantHandler{service: service, responder: newResponder(logger)}
}

// Create registers a new celebrant.
func (h *CelebrantHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req celebrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	celebrant, err := h.service.CreateCelebrant(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCelebrantDTO(celebrant))
}

// Update edits an existing celebrant, including the availability toggle.
func (h *CelebrantHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	celebrantID, ok := CelebrantIDFromContext(r.Context())
	if !ok || strings.TrimSpace(celebrantID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCelebrantID)
		return
	}

	var req celebrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	celebrant, err := h.service.UpdateCelebrant(r.Context(), celebrantID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCelebrantDTO(celebrant))
}

// List returns all celebrants.
func (h *CelebrantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	celebrants, err := h.service.ListCelebrants(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]celebrantDTO, 0, len(celebrants))
	for _, celebrant := range celebrants {
		dtos = append(dtos, toCelebrantDTO(celebrant))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCelebrantsResponse{Celebrants: dtos})
}

// AddUnavailableDay blocks a celebrant on a date.
func (h *CelebrantHandler) AddUnavailableDay(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	celebrantID, ok := CelebrantIDFromContext(r.Context())
	if !ok || strings.TrimSpace(celebrantID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCelebrantID)
		return
	}

	var req unavailableDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, err := h.service.AddUnavailableDay(r.Context(), celebrantID, application.UnavailableDayInput{
		Date:      parseDay(req.Date),
		Recurring: req.Recurring,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUnavailableDayDTO(entry))
}

// RemoveUnavailableDay unblocks a previously registered date.
func (h *CelebrantHandler) RemoveUnavailableDay(w http.ResponseWriter, r *http.Request, id string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUnavailableDayID)
		return
	}

	if err := h.service.RemoveUnavailableDay(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// AddSpecialDay registers a quota override for a date.
func (h *CelebrantHandler) AddSpecialDay(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req specialDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, err := h.service.AddSpecialDay(r.Context(), application.SpecialDayInput{
		Date:           parseDay(req.Date),
		NumberOfMasses: req.NumberOfMasses,
		Recurring:      req.Recurring,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSpecialDayDTO(entry))
}

// ListSpecialDays returns every quota override.
func (h *CelebrantHandler) ListSpecialDays(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entries, err := h.service.ListSpecialDays(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]specialDayDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toSpecialDayDTO(entry))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpecialDaysResponse{SpecialDays: dtos})
}

type celebrantRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title"`
	Available bool   `json:"available"`
}

func (r celebrantRequest) toInput() application.CelebrantInput {
	return application.CelebrantInput{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Title:     strings.TrimSpace(r.Title),
		Available: r.Available,
	}
}

type unavailableDayRequest struct {
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

type specialDayRequest struct {
	Date           string `json:"date"`
	NumberOfMasses int    `json:"number_of_masses"`
	Recurring      bool   `json:"recurring"`
}

type celebrantDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Title       string `json:"title,omitempty"`
	DisplayName string `json:"display_name"`
	Available   bool   `json:"available"`
}

type unavailableDayDTO struct {
	ID          string `json:"id"`
	CelebrantID string `json:"celebrant_id"`
	Date        string `json:"date"`
	Recurring   bool   `json:"recurring"`
}

type specialDayDTO struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	NumberOfMasses int    `json:"number_of_masses"`
	Recurring      bool   `json:"recurring"`
}

type listCelebrantsResponse struct {
	Celebrants []celebrantDTO `json:"celebrants"`
}

type listSpecialDaysResponse struct {
	SpecialDays []specialDayDTO `json:"special_days"`
}

func toCelebrantDTO(celebrant application.Celebrant) celebrantDTO {
	return celebrantDTO{
		ID:          celebrant.ID,
		FirstName:   celebrant.FirstName,
		LastName:    celebrant.LastName,
		Title:       celebrant.Title,
		DisplayName: celebrant.DisplayName(),
		Available:   celebrant.Available,
	}
}

func toUnavailableDayDTO(entry application.UnavailableDay) unavailableDayDTO {
	return unavailableDayDTO{
		ID:          entry.ID,
		CelebrantID: entry.CelebrantID,
		Date:        entry.Date.Format(dayFormat),
		Recurring:   entry.Recurring,
	}
}

func toSpecialDayDTO(entry application.SpecialDay) specialDayDTO {
	return specialDayDTO{
		ID:             entry.ID,
		Date:           entry.Date.Format(dayFormat),
		NumberOfMasses: entry.NumberOfMasses,
		Recurring:      entry.Recurring,
	}
}
