package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timesheet"
	"github.com/Tiliavir/timesheet/internal/validation"
	"github.com/Tiliavir/timesheet/internal/view"
)

// TimesheetHandler serves the JSON timesheet API.
type TimesheetHandler struct {
	svc *timesheet.Service
	now func() time.Time
	log zerolog.Logger
}

// NewTimesheetHandler returns a handler over svc. A nil now uses time.Now.
func NewTimesheetHandler(svc *timesheet.Service, now func() time.Time, log zerolog.Logger) *TimesheetHandler {
	if now == nil {
		now = time.Now
	}
	return &TimesheetHandler{svc: svc, now: now, log: log}
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// List handles GET /timesheets.
func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		h.internal(w, r, err, "Failed to fetch timesheets")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: entries})
}

// Week handles GET /timesheets/week.
func (h *TimesheetHandler) Week(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		h.internal(w, r, err, "Failed to fetch timesheets")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: view.GroupByDay(entries, h.now())})
}

// Create handles POST /timesheets.
func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in validation.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.internal(w, r, err, "Failed to create timesheet")
		return
	}
	entry, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.mutationErr(w, r, err, "Failed to create timesheet")
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: entry})
}

// Update handles PUT /timesheets/{id}.
func (h *TimesheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in validation.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.internal(w, r, err, "Failed to update timesheet")
		return
	}
	entry, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.mutationErr(w, r, err, "Failed to update timesheet")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: entry})
}

// Delete handles DELETE /timesheets/{id}.
func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.mutationErr(w, r, err, "Failed to delete timesheet")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Timesheet deleted successfully"})
}

// mutationErr maps service errors onto 400, 404 or 500.
func (h *TimesheetHandler) mutationErr(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeErrFields(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(verr), verr.Fields)
	case errors.Is(err, model.ErrNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "Timesheet not found")
	default:
		h.internal(w, r, err, fallback)
	}
}

func (h *TimesheetHandler) internal(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.log.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg(message)
	writeErr(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// validationMessage keeps the "Missing required fields" wording when a
// required field is absent.
func validationMessage(verr *validation.Error) string {
	for _, msg := range verr.Fields {
		if msg == "is required" {
			return "Missing required fields"
		}
	}
	return "Invalid timesheet"
}
