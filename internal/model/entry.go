package model

import "errors"

// ErrNotFound is returned when an operation targets an entry id that is not
// in the collection.
var ErrNotFound = errors.New("timesheet not found")

// Bounds for the numeric entry fields.
const (
	MinWeekNumber = 1
	MaxWeekNumber = 52
	MaxHours      = 168
)

// Status is the review state of a timesheet entry.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

// ParseStatus maps a raw string onto one of the four statuses.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// Label returns the capitalised status name ("Draft", "Submitted", ...).
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSubmitted:
		return "Submitted"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Entry is a single weekly timesheet record.
// Optional fields are pointers so that "absent" and "zero" stay distinct.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	WeekNumber  int      `json:"weekNumber" yaml:"weekNumber"`
	Date        string   `json:"date" yaml:"date"`
	Status      Status   `json:"status" yaml:"status"`
	Hours       *float64 `json:"hours,omitempty" yaml:"hours,omitempty"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Project     *string  `json:"project,omitempty" yaml:"project,omitempty"`
	TaskName    *string  `json:"taskName,omitempty" yaml:"taskName,omitempty"`
}

// HoursOrZero returns the logged hours, counting absent hours as 0.
func (e Entry) HoursOrZero() float64 {
	if e.Hours == nil {
		return 0
	}
	return *e.Hours
}

// Patch is a partial update. Nil fields leave the existing value untouched.
type Patch struct {
	WeekNumber  *int
	Date        *string
	Status      *Status
	Hours       *float64
	Description *string
	Project     *string
	TaskName    *string
}

// Apply merges p over e and returns the result; e.ID is never changed.
func (p Patch) Apply(e Entry) Entry {
	if p.WeekNumber != nil {
		e.WeekNumber = *p.WeekNumber
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Hours != nil {
		e.Hours = Float(*p.Hours)
	}
	if p.Description != nil {
		e.Description = String(*p.Description)
	}
	if p.Project != nil {
		e.Project = String(*p.Project)
	}
	if p.TaskName != nil {
		e.TaskName = String(*p.TaskName)
	}
	return e
}

// String returns a pointer to a copy of s.
func String(s string) *string { return &s }

// Float returns a pointer to a copy of f.
func Float(f float64) *float64 { return &f }

// Deref returns *s or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
