package validation_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/validation"
)

func decode(t *testing.T, body string) validation.Input {
	t.Helper()
	var in validation.Input
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return in
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *validation.Error", err)
	}
	return verr.Fields
}

func TestValidateAccepts(t *testing.T) {
	in := decode(t, `{"weekNumber":"7","date":"2025-02-10","status":"submitted","hours":"37.5","project":"ECM"}`)
	f, err := validation.Validate(in)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.WeekNumber != 7 {
		t.Errorf("WeekNumber = %d, want 7", f.WeekNumber)
	}
	if f.Status != model.StatusSubmitted {
		t.Errorf("Status = %q, want submitted", f.Status)
	}
	if f.Hours == nil || *f.Hours != 37.5 {
		t.Errorf("Hours = %v, want 37.5", f.Hours)
	}
	if model.Deref(f.Project) != "ECM" {
		t.Errorf("Project = %q, want ECM", model.Deref(f.Project))
	}
	if f.Description != nil || f.TaskName != nil {
		t.Error("absent text fields should stay nil")
	}
}

func TestValidateAbsentHoursStayAbsent(t *testing.T) {
	f, err := validation.Validate(decode(t, `{"weekNumber":1,"date":"2025-01-06","status":"draft"}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.Hours != nil {
		t.Errorf("Hours = %v, want nil", *f.Hours)
	}

	f, err = validation.Validate(decode(t, `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":null}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.Hours != nil {
		t.Errorf("Hours with null = %v, want nil", *f.Hours)
	}
}

func TestValidateZeroHoursIsPresent(t *testing.T) {
	f, err := validation.Validate(decode(t, `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":0}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.Hours == nil || *f.Hours != 0 {
		t.Errorf("Hours = %v, want 0", f.Hours)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing week", `{"date":"2025-01-06","status":"draft"}`, "weekNumber"},
		{"week zero", `{"weekNumber":0,"date":"2025-01-06","status":"draft"}`, "weekNumber"},
		{"week 53", `{"weekNumber":53,"date":"2025-01-06","status":"draft"}`, "weekNumber"},
		{"week fraction", `{"weekNumber":2.5,"date":"2025-01-06","status":"draft"}`, "weekNumber"},
		{"week text", `{"weekNumber":"abc","date":"2025-01-06","status":"draft"}`, "weekNumber"},
		{"missing date", `{"weekNumber":1,"status":"draft"}`, "date"},
		{"blank date", `{"weekNumber":1,"date":"  ","status":"draft"}`, "date"},
		{"missing status", `{"weekNumber":1,"date":"2025-01-06"}`, "status"},
		{"unknown status", `{"weekNumber":1,"date":"2025-01-06","status":"pending"}`, "status"},
		{"negative hours", `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":-1}`, "hours"},
		{"too many hours", `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":168.5}`, "hours"},
		{"hours text", `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":"lots"}`, "hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validation.Validate(decode(t, tt.body))
			fields := fieldErrors(t, err)
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("field errors = %v, want entry for %q", fields, tt.field)
			}
		})
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	_, err := validation.Validate(validation.Input{})
	fields := fieldErrors(t, err)
	for _, name := range []string{"weekNumber", "date", "status"} {
		if fields[name] != "is required" {
			t.Errorf("fields[%q] = %q, want %q", name, fields[name], "is required")
		}
	}
}

func TestValidateBoundaries(t *testing.T) {
	for _, week := range []float64{1, 52} {
		for _, hours := range []float64{0, 168} {
			in := validation.Input{
				WeekNumber: validation.NumberOf(week),
				Date:       "2025-01-06",
				Status:     "approved",
				Hours:      validation.NumberOf(hours),
			}
			if _, err := validation.Validate(in); err != nil {
				t.Errorf("Validate(week=%v, hours=%v) = %v, want nil", week, hours, err)
			}
		}
	}
}

func TestFieldsPatchKeepsAbsentOptionals(t *testing.T) {
	f, err := validation.Validate(decode(t, `{"weekNumber":4,"date":"2025-01-27","status":"approved"}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	orig := model.Entry{
		ID:          "9",
		WeekNumber:  3,
		Date:        "2025-01-20",
		Status:      model.StatusDraft,
		Hours:       model.Float(35),
		Description: model.String("kept"),
	}
	got := f.Patch().Apply(orig)
	if got.WeekNumber != 4 || got.Date != "2025-01-27" || got.Status != model.StatusApproved {
		t.Errorf("required fields not replaced: %+v", got)
	}
	if got.HoursOrZero() != 35 || model.Deref(got.Description) != "kept" {
		t.Errorf("absent optionals overwritten: %+v", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  validation.Number
	}{
		{"", validation.Number{}},
		{"  ", validation.Number{}},
		{"8", validation.Number{Value: 8, Set: true}},
		{" 7.25 ", validation.Number{Value: 7.25, Set: true}},
		{"NaN", validation.Number{Set: true, Invalid: true}},
		{"x", validation.Number{Set: true, Invalid: true}},
	}
	for _, tt := range tests {
		if got := validation.ParseNumber(tt.input); got != tt.want {
			t.Errorf("ParseNumber(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestErrorMessageIsSorted(t *testing.T) {
	err := &validation.Error{Fields: map[string]string{"status": "is required", "date": "is required"}}
	want := "invalid timesheet: date is required; status is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
