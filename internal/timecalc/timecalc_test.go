package timecalc_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/Tiliavir/timesheet/internal/timecalc"
)

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestWorkWeek(t *testing.T) {
	want := []string{"2026-02-23", "2026-02-24", "2026-02-25", "2026-02-26", "2026-02-27"}
	tests := []struct {
		name string
		day  time.Time
	}{
		{"monday", time.Date(2026, 2, 23, 8, 0, 0, 0, time.UTC)},
		{"friday", time.Date(2026, 2, 27, 17, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)},
		// Sunday rolls back six days to the prior Monday.
		{"sunday", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := timecalc.WorkWeek(tt.day)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("WorkWeek(%s) = %v, want %v", tt.name, got, want)
		}
	}
}

func TestWorkWeekAcrossMonth(t *testing.T) {
	got := timecalc.WorkWeek(time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC))
	want := []string{"2025-12-29", "2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WorkWeek = %v, want %v", got, want)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestRangeLabel(t *testing.T) {
	tests := []struct {
		dates []string
		want  string
	}{
		{nil, ""},
		{[]string{"not a date"}, ""},
		{[]string{"2025-01-06"}, "6 - 6 January, 2025"},
		{[]string{"2025-01-20", "2025-01-06", "2025-01-13", "2025-01-06"}, "6 - 20 January, 2025"},
		{[]string{"2025-01-27", "2025-02-03"}, "27 - 3 January, 2025"},
		{[]string{"bogus", "2025-03-10T09:00:00Z", "2025-03-12"}, "10 - 12 March, 2025"},
	}
	for _, tt := range tests {
		if got := timecalc.RangeLabel(tt.dates); got != tt.want {
			t.Errorf("RangeLabel(%v) = %q, want %q", tt.dates, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := timecalc.ParseDate("2025-01-06")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got.Year() != 2025 || got.Month() != time.January || got.Day() != 6 {
		t.Errorf("ParseDate = %v, want 2025-01-06", got)
	}
	if _, err := timecalc.ParseDate("06/01/2025"); err == nil {
		t.Error("ParseDate(06/01/2025): expected error")
	}
}

func TestFormatting(t *testing.T) {
	d := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	if got := timecalc.DayHeading(d); got != "Mon, Jan 6" {
		t.Errorf("DayHeading = %q, want %q", got, "Mon, Jan 6")
	}
	if got := timecalc.ShortDate(d); got != "Jan 6, 2025" {
		t.Errorf("ShortDate = %q, want %q", got, "Jan 6, 2025")
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0"},
		{40, "40"},
		{37.5, "37.5"},
		{0.25, "0.25"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatHours(tt.hours); got != tt.want {
			t.Errorf("FormatHours(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}
