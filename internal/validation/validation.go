// Package validation turns raw timesheet input into normalised entry fields
// or a field-level rejection. It has no side effects.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/timesheet/internal/model"
)

// Number is a loosely typed numeric input: a JSON number or a numeric
// string. Null, "" and a missing key all leave Set false.
type Number struct {
	Value   float64
	Set     bool
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = ParseNumber(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		// Booleans, objects and arrays are values, just not numeric ones.
		n.Set, n.Invalid = true, true
		return nil
	}
	n.Value, n.Set = f, true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ParseNumber converts form text into a Number.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{Set: true, Invalid: true}
	}
	return Number{Value: f, Set: true}
}

// NumberOf wraps a known value.
func NumberOf(f float64) Number { return Number{Value: f, Set: true} }

// Input is the raw request shape shared by create and update.
type Input struct {
	WeekNumber  Number  `json:"weekNumber"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Hours       Number  `json:"hours"`
	Description *string `json:"description,omitempty"`
	Project     *string `json:"project,omitempty"`
	TaskName    *string `json:"taskName,omitempty"`
}

// Fields is an accepted, normalised input.
type Fields struct {
	WeekNumber  int
	Date        string
	Status      model.Status
	Hours       *float64
	Description *string
	Project     *string
	TaskName    *string
}

// Entry builds a new entry with the given id.
func (f Fields) Entry(id string) model.Entry {
	return model.Entry{
		ID:          id,
		WeekNumber:  f.WeekNumber,
		Date:        f.Date,
		Status:      f.Status,
		Hours:       f.Hours,
		Description: f.Description,
		Project:     f.Project,
		TaskName:    f.TaskName,
	}
}

// Patch turns the fields into a partial update: required fields always
// replace, optional ones only when present.
func (f Fields) Patch() model.Patch {
	week, date, status := f.WeekNumber, f.Date, f.Status
	return model.Patch{
		WeekNumber:  &week,
		Date:        &date,
		Status:      &status,
		Hours:       f.Hours,
		Description: f.Description,
		Project:     f.Project,
		TaskName:    f.TaskName,
	}
}

// Input converts accepted fields back into request form.
func (f Fields) Input() Input {
	in := Input{
		WeekNumber:  NumberOf(float64(f.WeekNumber)),
		Date:        f.Date,
		Status:      string(f.Status),
		Description: f.Description,
		Project:     f.Project,
		TaskName:    f.TaskName,
	}
	if f.Hours != nil {
		in.Hours = NumberOf(*f.Hours)
	}
	return in
}

// Error is a rejected input. Fields maps json field names to messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid timesheet: " + strings.Join(parts, "; ")
}

// required holds the fields checked through struct tags.
type required struct {
	WeekNumber int    `json:"weekNumber" validate:"required,min=1,max=52"`
	Date       string `json:"date" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=draft submitted approved rejected"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks in against the entry schema.
func Validate(in Input) (Fields, error) {
	errs := map[string]string{}

	req := required{
		Date:   strings.TrimSpace(in.Date),
		Status: strings.TrimSpace(in.Status),
	}
	switch {
	case !in.WeekNumber.Set:
	case in.WeekNumber.Invalid:
		errs["weekNumber"] = "must be a number"
	case in.WeekNumber.Value != math.Trunc(in.WeekNumber.Value):
		errs["weekNumber"] = "must be a whole number"
	case in.WeekNumber.Value < model.MinWeekNumber || in.WeekNumber.Value > model.MaxWeekNumber:
		errs["weekNumber"] = rangeMessage(model.MinWeekNumber, model.MaxWeekNumber)
	default:
		req.WeekNumber = int(in.WeekNumber.Value)
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Fields{}, fmt.Errorf("validate timesheet: %w", err)
		}
		for _, fe := range verrs {
			if _, seen := errs[fe.Field()]; seen {
				continue
			}
			errs[fe.Field()] = message(fe)
		}
	}

	var hours *float64
	if in.Hours.Set {
		if in.Hours.Invalid {
			errs["hours"] = "must be a number"
		} else if err := validate.Var(in.Hours.Value, "min=0,max=168"); err != nil {
			errs["hours"] = rangeMessage(0, model.MaxHours)
		} else {
			hours = model.Float(in.Hours.Value)
		}
	}

	if len(errs) > 0 {
		return Fields{}, &Error{Fields: errs}
	}

	status, _ := model.ParseStatus(req.Status)
	return Fields{
		WeekNumber:  req.WeekNumber,
		Date:        req.Date,
		Status:      status,
		Hours:       hours,
		Description: in.Description,
		Project:     in.Project,
		TaskName:    in.TaskName,
	}, nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		if fe.Field() == "weekNumber" {
			return rangeMessage(model.MinWeekNumber, model.MaxWeekNumber)
		}
		return "is out of range"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}

func rangeMessage(lo, hi int) string {
	return fmt.Sprintf("must be between %d and %d", lo, hi)
}
