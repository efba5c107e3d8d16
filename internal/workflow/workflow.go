// Package workflow sequences one user's edits: open a form, validate it,
// hand it to a backend, and keep a local copy of the collection in step
// with what the backend returned.
//
// An Orchestrator is not safe for concurrent use.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
	"github.com/Tiliavir/timesheet/internal/validation"
)

var (
	ErrNotEditing       = errors.New("no form is open")
	ErrNoPendingDelete  = errors.New("no delete awaiting confirmation")
	ErrSubmitInProgress = errors.New("submission in progress")
)

// Backend is where accepted changes go: the in-process service on the
// server, the HTTP API in the CLI.
type Backend interface {
	List(ctx context.Context) ([]model.Entry, error)
	Create(ctx context.Context, in validation.Input) (model.Entry, error)
	Update(ctx context.Context, id string, in validation.Input) (model.Entry, error)
	Delete(ctx context.Context, id string) error
}

// State of the editing session.
type State int

const (
	Idle State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

// Mode tells whether the open form creates or edits.
type Mode int

const (
	ModeNew Mode = iota
	ModeExisting
)

// Form holds the raw text of the entry form.
type Form struct {
	WeekNumber  string
	Date        string
	Status      string
	Hours       string
	Description string
	Project     string
	TaskName    string
}

// DefaultForm is the "add" form: week 1, the given date, draft, 0 hours.
func DefaultForm(date string) Form {
	return Form{
		WeekNumber: "1",
		Date:       date,
		Status:     string(model.StatusDraft),
		Hours:      "0",
	}
}

// FormFor pre-populates the form from an entry. Absent hours show as 0.
func FormFor(e model.Entry) Form {
	return Form{
		WeekNumber:  strconv.Itoa(e.WeekNumber),
		Date:        e.Date,
		Status:      string(e.Status),
		Hours:       timecalc.FormatHours(e.HoursOrZero()),
		Description: model.Deref(e.Description),
		Project:     model.Deref(e.Project),
		TaskName:    model.Deref(e.TaskName),
	}
}

// Input converts the form text. Blank optional text fields are absent.
func (f Form) Input() validation.Input {
	return validation.Input{
		WeekNumber:  validation.ParseNumber(f.WeekNumber),
		Date:        f.Date,
		Status:      f.Status,
		Hours:       validation.ParseNumber(f.Hours),
		Description: optional(f.Description),
		Project:     optional(f.Project),
		TaskName:    optional(f.TaskName),
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Orchestrator drives one editing session.
type Orchestrator struct {
	backend Backend
	now     func() time.Time

	entries []model.Entry

	state       State
	mode        Mode
	editingID   string
	form        Form
	fieldErrors map[string]string
	err         error

	pendingDelete string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for the default form date.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an idle orchestrator over b.
func New(b Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{backend: b, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load replaces the local view state with the backend's collection.
func (o *Orchestrator) Load(ctx context.Context) error {
	entries, err := o.backend.List(ctx)
	if err != nil {
		o.err = err
		return fmt.Errorf("load timesheets: %w", err)
	}
	o.entries = entries
	return nil
}

// Entries returns a copy of the local view state.
func (o *Orchestrator) Entries() []model.Entry {
	return append([]model.Entry(nil), o.entries...)
}

func (o *Orchestrator) State() State                   { return o.state }
func (o *Orchestrator) Mode() Mode                     { return o.mode }
func (o *Orchestrator) EditingID() string              { return o.editingID }
func (o *Orchestrator) Form() Form                     { return o.form }
func (o *Orchestrator) FieldErrors() map[string]string { return o.fieldErrors }

// Err is the last surfaced error, nil after a success.
func (o *Orchestrator) Err() error { return o.err }

// PendingDelete is the id awaiting confirmation, or "".
func (o *Orchestrator) PendingDelete() string { return o.pendingDelete }

// OpenAdd opens an empty form. An empty date means today.
func (o *Orchestrator) OpenAdd(date string) {
	if date == "" {
		date = o.now().Format(timecalc.DateLayout)
	}
	o.open(ModeNew, "", DefaultForm(date))
}

// OpenEdit opens the form for an entry in the local view state.
func (o *Orchestrator) OpenEdit(id string) error {
	i := o.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit %s: %w", id, model.ErrNotFound)
	}
	o.open(ModeExisting, id, FormFor(o.entries[i]))
	return nil
}

func (o *Orchestrator) open(mode Mode, id string, form Form) {
	o.state = Editing
	o.mode = mode
	o.editingID = id
	o.form = form
	o.fieldErrors = nil
	o.err = nil
}

// SetForm replaces the text of the open form.
func (o *Orchestrator) SetForm(f Form) error {
	if o.state != Editing {
		return ErrNotEditing
	}
	o.form = f
	return nil
}

// Cancel closes the form without saving.
func (o *Orchestrator) Cancel() {
	o.state = Idle
	o.editingID = ""
	o.form = Form{}
	o.fieldErrors = nil
}

// Submit validates the open form and, if it passes, sends it to the
// backend. On any failure the form stays open with the error surfaced and
// the local view state untouched.
func (o *Orchestrator) Submit(ctx context.Context) (model.Entry, error) {
	switch o.state {
	case Idle:
		return model.Entry{}, ErrNotEditing
	case Submitting:
		return model.Entry{}, ErrSubmitInProgress
	}

	fields, err := validation.Validate(o.form.Input())
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			o.fieldErrors = verr.Fields
		}
		o.err = err
		return model.Entry{}, err
	}
	o.fieldErrors = nil

	o.state = Submitting
	var saved model.Entry
	if o.mode == ModeNew {
		saved, err = o.backend.Create(ctx, fields.Input())
	} else {
		saved, err = o.backend.Update(ctx, o.editingID, fields.Input())
	}
	if err != nil {
		o.state = Editing
		o.err = err
		var verr *validation.Error
		if errors.As(err, &verr) {
			o.fieldErrors = verr.Fields
		}
		return model.Entry{}, err
	}

	o.merge(saved)
	o.err = nil
	o.Cancel()
	return saved, nil
}

// merge puts the backend's canonical record into the local view state.
func (o *Orchestrator) merge(e model.Entry) {
	if i := o.indexOf(e.ID); i >= 0 {
		o.entries[i] = e
		return
	}
	o.entries = append(o.entries, e)
}

// RequestDelete asks for confirmation before deleting id.
func (o *Orchestrator) RequestDelete(id string) error {
	if o.indexOf(id) < 0 {
		return fmt.Errorf("delete %s: %w", id, model.ErrNotFound)
	}
	o.pendingDelete = id
	return nil
}

// CancelDelete drops a pending delete.
func (o *Orchestrator) CancelDelete() { o.pendingDelete = "" }

// ConfirmDelete deletes the pending entry. The local view state only
// changes when the backend reports success.
func (o *Orchestrator) ConfirmDelete(ctx context.Context) error {
	id := o.pendingDelete
	if id == "" {
		return ErrNoPendingDelete
	}
	o.pendingDelete = ""
	if err := o.backend.Delete(ctx, id); err != nil {
		o.err = err
		return err
	}
	if i := o.indexOf(id); i >= 0 {
		o.entries = append(o.entries[:i], o.entries[i+1:]...)
	}
	o.err = nil
	return nil
}

func (o *Orchestrator) indexOf(id string) int {
	for i, e := range o.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
