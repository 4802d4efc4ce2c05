package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/intention-scheduler/internal/application"
)

type extenderService interface {
	ExtendYearly(ctx context.Context) (application.ExtendReport, error)
	ExtendMonthly(ctx context.Context) (application.ExtendReport, error)
}

type lifecycleService interface {
	UpdateLifecycle(ctx context.Context) (application.LifecycleReport, error)
}

// JobHandler exposes the background maintenance jobs as administrative
// trigger endpoints.
type JobHandler struct {
	extender  extenderService
	lifecycle lifecycleService
	responder responder
}

func NewJobHandler(extender extenderService, lifecycle lifecycleService, logger *slog.Logger) *JobHandler {
	return &JobHandler{extender: extender, lifecycle: lifecycle, responder: newResponder(logger)}
}

// ExtendYearly runs the yearly rolling-horizon pass.
func (h *JobHandler) ExtendYearly(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.extender == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.extender.ExtendYearly(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExtendReportDTO(report))
}

// ExtendMonthly runs the monthly, monthly-relative and weekly
// rolling-horizon passes.
func (h *JobHandler) ExtendMonthly(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.extender == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.extender.ExtendMonthly(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExtendReportDTO(report))
}

// UpdateLifecycle runs the lifecycle updater pass.
func (h *JobHandler) UpdateLifecycle(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.lifecycle == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.lifecycle.UpdateLifecycle(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lifecycleReportDTO{
		MassesCompleted:     report.MassesCompleted,
		IntentionsCompleted: report.IntentionsCompleted,
		Failures:            report.Failures,
	})
}

type extendReportDTO struct {
	Examined int       `json:"examined"`
	Created  []massDTO `json:"created"`
	Skipped  int       `json:"skipped"`
	Failures int       `json:"failures"`
}

type lifecycleReportDTO struct {
	MassesCompleted     int `json:"masses_completed"`
	IntentionsCompleted int `json:"intentions_completed"`
	Failures            int `json:"failures"`
}

func toExtendReportDTO(report application.ExtendReport) extendReportDTO {
	return extendReportDTO{
		Examined: report.Examined,
		Created:  toMassDTOs(report.Created),
		Skipped:  report.Skipped,
		Failures: report.Failures,
	}
}
