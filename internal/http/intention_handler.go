package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/recurrence"
	"github.com/example/intention-scheduler/internal/scheduling"
)

const dayFormat = "2006-01-02"

type intentionService interface {
	Preview(ctx context.Context, input application.IntentionInput) (application.Plan, error)
	Commit(ctx context.Context, input application.IntentionInput) (application.CommitResult, error)
	GetIntention(ctx context.Context, id string) (application.Intention, []application.Mass, error)
	Cancel(ctx context.Context, id string) error
}

type IntentionHandler struct {
	service   intentionService
	responder responder
}

func NewIntentionHandler(service intentionService, logger *slog.Logger) *IntentionHandler {
	return &IntentionHandler{service: service, responder: newResponder(logger)}
}

// Preview computes the proposed occurrence plan without persisting anything.
func (h *IntentionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req intentionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	plan, err := h.service.Preview(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, planResponse{
		Masses:    toPlannedMassDTOs(plan.Masses),
		Conflicts: toConflictDTOs(plan.Conflicts),
	})
}

// Create commits a submission: donor, intention, recurrence and masses.
func (h *IntentionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req intentionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Commit(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, commitResponse{
		Intention: toIntentionDTO(result.Intention),
		Donor:     toDonorDTO(result.Donor),
		Masses:    toMassDTOs(result.Masses),
		Conflicts: toConflictDTOs(result.Conflicts),
	})
}

// Get returns one intention and its masses.
func (h *IntentionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	intentionID, ok := IntentionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(intentionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntentionID)
		return
	}

	intention, masses, err := h.service.GetIntention(r.Context(), intentionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, intentionResponse{
		Intention: toIntentionDTO(intention),
		Masses:    toMassDTOs(masses),
	})
}

// Cancel cancels an intention and its future scheduled masses.
func (h *IntentionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	intentionID, ok := IntentionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(intentionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIntentionID)
		return
	}

	if err := h.service.Cancel(r.Context(), intentionID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type donorRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type recurrenceRequest struct {
	Type      string  `json:"type"`
	EndPolicy string  `json:"end_policy"`
	Count     int     `json:"count"`
	EndDate   *string `json:"end_date"`
	Ordinal   int     `json:"ordinal"`
	Weekday   int     `json:"weekday"`
}

type intentionRequest struct {
	Description        string             `json:"description"`
	Donor              donorRequest       `json:"donor"`
	AmountCents        int64              `json:"amount_cents"`
	PaymentMethod      string             `json:"payment_method"`
	ForDeceased        bool               `json:"for_deceased"`
	RequestedCelebrant string             `json:"requested_celebrant"`
	DateType           string             `json:"date_type"`
	Kind               string             `json:"kind"`
	MassCount          int                `json:"mass_count"`
	StartDate          string             `json:"start_date"`
	Recurrence         *recurrenceRequest `json:"recurrence"`
}

func (r intentionRequest) toInput() application.IntentionInput {
	input := application.IntentionInput{
		Description: strings.TrimSpace(r.Description),
		Donor: application.DonorInput{
			FirstName:  strings.TrimSpace(r.Donor.FirstName),
			LastName:   strings.TrimSpace(r.Donor.LastName),
			Email:      strings.TrimSpace(r.Donor.Email),
			Phone:      strings.TrimSpace(r.Donor.Phone),
			Address:    strings.TrimSpace(r.Donor.Address),
			City:       strings.TrimSpace(r.Donor.City),
			PostalCode: strings.TrimSpace(r.Donor.PostalCode),
		},
		AmountCents:        r.AmountCents,
		PaymentMethod:      application.PaymentMethod(r.PaymentMethod),
		ForDeceased:        r.ForDeceased,
		RequestedCelebrant: strings.TrimSpace(r.RequestedCelebrant),
		DateType:           application.DateType(r.DateType),
		Kind:               application.IntentionKind(r.Kind),
		MassCount:          r.MassCount,
		StartDate:          parseDay(r.StartDate),
	}

	if r.Recurrence != nil {
		rec := application.RecurrenceInput{
			Type:      recurrence.Type(r.Recurrence.Type),
			EndPolicy: recurrence.EndPolicy(r.Recurrence.EndPolicy),
			Count:     r.Recurrence.Count,
			Ordinal:   recurrence.Ordinal(r.Recurrence.Ordinal),
			Weekday:   time.Weekday(r.Recurrence.Weekday),
		}
		if r.Recurrence.EndDate != nil {
			if day := parseDay(*r.Recurrence.EndDate); !day.IsZero() {
				rec.EndDate = &day
			}
		}
		input.Recurrence = &rec
	}

	return input
}

type planResponse struct {
	Masses    []plannedMassDTO `json:"masses"`
	Conflicts []conflictDTO    `json:"conflicts,omitempty"`
}

type commitResponse struct {
	Intention intentionDTO  `json:"intention"`
	Donor     donorDTO      `json:"donor"`
	Masses    []massDTO     `json:"masses"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
}

type intentionResponse struct {
	Intention intentionDTO `json:"intention"`
	Masses    []massDTO    `json:"masses"`
}

type plannedMassDTO struct {
	Date          string       `json:"date"`
	CelebrantID   string       `json:"celebrant_id,omitempty"`
	CelebrantName string       `json:"celebrant_name,omitempty"`
	Random        bool         `json:"random"`
	Conflict      *conflictDTO `json:"conflict,omitempty"`
}

type conflictDTO struct {
	Date        string `json:"date"`
	CelebrantID string `json:"celebrant_id,omitempty"`
	Reason      string `json:"reason"`
}

type intentionDTO struct {
	ID                 string  `json:"id"`
	Description        string  `json:"description"`
	DonorID            string  `json:"donor_id"`
	AmountCents        int64   `json:"amount_cents"`
	PaymentMethod      string  `json:"payment_method"`
	ForDeceased        bool    `json:"for_deceased"`
	RequestedCelebrant string  `json:"requested_celebrant,omitempty"`
	DateType           string  `json:"date_type"`
	Kind               string  `json:"kind"`
	MassCount          int     `json:"mass_count"`
	RecurrenceID       *string `json:"recurrence_id,omitempty"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type donorDTO struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type massDTO struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	CelebrantID     *string `json:"celebrant_id,omitempty"`
	IntentionID     string  `json:"intention_id"`
	Status          string  `json:"status"`
	RandomCelebrant bool    `json:"random_celebrant"`
}

func toIntentionDTO(intention application.Intention) intentionDTO {
	return intentionDTO{
		ID:                 intention.ID,
		Description:        intention.Description,
		DonorID:            intention.DonorID,
		AmountCents:        intention.AmountCents,
		PaymentMethod:      string(intention.PaymentMethod),
		ForDeceased:        intention.ForDeceased,
		RequestedCelebrant: intention.RequestedCelebrant,
		DateType:           string(intention.DateType),
		Kind:               string(intention.Kind),
		MassCount:          intention.MassCount,
		RecurrenceID:       intention.RecurrenceID,
		Status:             string(intention.Status),
		CreatedAt:          intention.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          intention.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toDonorDTO(donor application.Donor) donorDTO {
	return donorDTO{
		ID:         donor.ID,
		FirstName:  donor.FirstName,
		LastName:   donor.LastName,
		Email:      donor.Email,
		Phone:      donor.Phone,
		Address:    donor.Address,
		City:       donor.City,
		PostalCode: donor.PostalCode,
	}
}

func toMassDTO(mass application.Mass) massDTO {
	return massDTO{
		ID:              mass.ID,
		Date:            mass.Date.Format(dayFormat),
		CelebrantID:     mass.CelebrantID,
		IntentionID:     mass.IntentionID,
		Status:          string(mass.Status),
		RandomCelebrant: mass.RandomCelebrant,
	}
}

func toMassDTOs(masses []application.Mass) []massDTO {
	dtos := make([]massDTO, 0, len(masses))
	for _, mass := range masses {
		dtos = append(dtos, toMassDTO(mass))
	}
	return dtos
}

func toPlannedMassDTOs(masses []application.PlannedMass) []plannedMassDTO {
	dtos := make([]plannedMassDTO, 0, len(masses))
	for _, mass := range masses {
		dto := plannedMassDTO{
			Date:          mass.Date.Format(dayFormat),
			CelebrantID:   mass.CelebrantID,
			CelebrantName: mass.CelebrantName,
			Random:        mass.Random,
		}
		if mass.Conflict != nil {
			conflict := toConflictDTO(*mass.Conflict)
			dto.Conflict = &conflict
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func toConflictDTO(conflict scheduling.Conflict) conflictDTO {
	return conflictDTO{
		Date:        conflict.Date.Format(dayFormat),
		CelebrantID: conflict.CelebrantID,
		Reason:      string(conflict.Reason),
	}
}

func toConflictDTOs(conflicts []scheduling.Conflict) []conflictDTO {
	if len(conflicts) == 0 {
		return nil
	}
	dtos := make([]conflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		dtos = append(dtos, toConflictDTO(conflict))
	}
	return dtos
}

// parseDay parses a YYYY-MM-DD value, returning the zero time on failure so
// service level validation can flag the field.
func parseDay(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	day, err := time.ParseInLocation(dayFormat, value, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return day
}
