package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/auth"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timesheet"
	"github.com/Tiliavir/timesheet/internal/validation"
	"github.com/Tiliavir/timesheet/internal/view"
	"github.com/Tiliavir/timesheet/internal/workflow"
)

// Dashboard view modes.
const (
	ViewTable = "table"
	ViewList  = "list"

	viewCookie = "tsm_view"
)

// DashboardHandler serves the signed-in pages.
type DashboardHandler struct {
	svc *timesheet.Service
	now func() time.Time
	log zerolog.Logger
}

// NewDashboardHandler returns a handler over svc. A nil now uses time.Now.
func NewDashboardHandler(svc *timesheet.Service, now func() time.Time, log zerolog.Logger) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{svc: svc, now: now, log: log}
}

type dashboardPage struct {
	Title string
	Email string
	View  string
	Rows  []view.Row
	Week  view.Week
}

type formPage struct {
	Title    string
	Email    string
	Action   string
	Form     workflow.Form
	Errors   map[string]string
	Error    string
	Statuses []model.Status
}

type deletePage struct {
	Title string
	Email string
	Row   view.Row
}

// Index handles GET /dashboard.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	mode := h.viewMode(w, r)
	entries, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list timesheets")
		renderError(w, h.log, http.StatusInternalServerError, "Failed to fetch timesheets")
		return
	}
	page := dashboardPage{Title: "Your Timesheets", Email: email(r), View: mode}
	if mode == ViewList {
		page.Week = view.GroupByDay(entries, h.now())
	} else {
		page.Rows = view.Table(entries)
	}
	render(w, h.log, http.StatusOK, "dashboard.html", page)
}

// viewMode reads ?view= and remembers it in a cookie.
func (h *DashboardHandler) viewMode(w http.ResponseWriter, r *http.Request) string {
	if v := r.URL.Query().Get("view"); v == ViewTable || v == ViewList {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookie,
			Value:    v,
			Path:     "/dashboard",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookie); err == nil && c.Value == ViewList {
		return ViewList
	}
	return ViewTable
}

// NewEntry handles GET /dashboard/entries/new?date=.
func (h *DashboardHandler) NewEntry(w http.ResponseWriter, r *http.Request) {
	o := h.orchestrator()
	o.OpenAdd(r.URL.Query().Get("date"))
	h.renderForm(w, r, http.StatusOK, o, "")
}

// EditEntry handles GET /dashboard/entries/{id}/edit.
func (h *DashboardHandler) EditEntry(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loaded(w, r)
	if !ok {
		return
	}
	if err := o.OpenEdit(chi.URLParam(r, "id")); err != nil {
		renderError(w, h.log, http.StatusNotFound, "Timesheet not found")
		return
	}
	h.renderForm(w, r, http.StatusOK, o, "")
}

// CreateEntry handles POST /dashboard/entries.
func (h *DashboardHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	o := h.orchestrator()
	o.OpenAdd("")
	h.submit(w, r, o)
}

// UpdateEntry handles POST /dashboard/entries/{id}.
func (h *DashboardHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loaded(w, r)
	if !ok {
		return
	}
	if err := o.OpenEdit(chi.URLParam(r, "id")); err != nil {
		renderError(w, h.log, http.StatusNotFound, "Timesheet not found")
		return
	}
	h.submit(w, r, o)
}

func (h *DashboardHandler) submit(w http.ResponseWriter, r *http.Request, o *workflow.Orchestrator) {
	if err := r.ParseForm(); err != nil {
		renderError(w, h.log, http.StatusBadRequest, "Invalid form")
		return
	}
	_ = o.SetForm(formFrom(r))

	if _, err := o.Submit(r.Context()); err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			h.renderForm(w, r, http.StatusBadRequest, o, "Please correct the highlighted fields.")
		case errors.Is(err, model.ErrNotFound):
			h.renderForm(w, r, http.StatusNotFound, o, "Timesheet not found")
		default:
			h.log.Error().Err(err).Msg("save timesheet")
			h.renderForm(w, r, http.StatusInternalServerError, o, "Failed to save timesheet")
		}
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ConfirmDelete handles GET /dashboard/entries/{id}/delete.
func (h *DashboardHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		renderError(w, h.log, http.StatusInternalServerError, "Failed to fetch timesheets")
		return
	}
	id := chi.URLParam(r, "id")
	for _, row := range view.Table(entries) {
		if row.ID == id {
			render(w, h.log, http.StatusOK, "delete.html", deletePage{Title: "Delete timesheet", Email: email(r), Row: row})
			return
		}
	}
	renderError(w, h.log, http.StatusNotFound, "Timesheet not found")
}

// DeleteEntry handles POST /dashboard/entries/{id}/delete, the confirmed
// delete.
func (h *DashboardHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loaded(w, r)
	if !ok {
		return
	}
	if err := o.RequestDelete(chi.URLParam(r, "id")); err != nil {
		renderError(w, h.log, http.StatusNotFound, "Timesheet not found")
		return
	}
	if err := o.ConfirmDelete(r.Context()); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			renderError(w, h.log, http.StatusNotFound, "Timesheet not found")
			return
		}
		h.log.Error().Err(err).Msg("delete timesheet")
		renderError(w, h.log, http.StatusInternalServerError, "Failed to delete timesheet")
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *DashboardHandler) orchestrator() *workflow.Orchestrator {
	return workflow.New(h.svc, workflow.WithClock(h.now))
}

// loaded returns an orchestrator holding the current collection.
func (h *DashboardHandler) loaded(w http.ResponseWriter, r *http.Request) (*workflow.Orchestrator, bool) {
	o := h.orchestrator()
	if err := o.Load(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("load timesheets")
		renderError(w, h.log, http.StatusInternalServerError, "Failed to fetch timesheets")
		return nil, false
	}
	return o, true
}

func (h *DashboardHandler) renderForm(w http.ResponseWriter, r *http.Request, code int, o *workflow.Orchestrator, msg string) {
	page := formPage{
		Title:    "Add timesheet",
		Email:    email(r),
		Action:   "/dashboard/entries",
		Form:     o.Form(),
		Errors:   o.FieldErrors(),
		Error:    msg,
		Statuses: model.Statuses,
	}
	if o.Mode() == workflow.ModeExisting {
		page.Title = "Edit timesheet"
		page.Action = "/dashboard/entries/" + o.EditingID()
	}
	render(w, h.log, code, "form.html", page)
}

func formFrom(r *http.Request) workflow.Form {
	f := r.PostForm
	return workflow.Form{
		WeekNumber:  f.Get("weekNumber"),
		Date:        f.Get("date"),
		Status:      f.Get("status"),
		Hours:       f.Get("hours"),
		Description: f.Get("description"),
		Project:     f.Get("project"),
		TaskName:    f.Get("taskName"),
	}
}

func email(r *http.Request) string {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p.Email
}
