package timecalc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for entry dates.
const DateLayout = "2006-01-02"

// WorkDays is the number of days shown for a working week (Monday–Friday).
const WorkDays = 5

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = StartOfDay(monday)
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// WorkWeek returns the Monday–Friday dates of the week containing t,
// formatted with DateLayout. A Sunday belongs to the week that started six
// days earlier.
func WorkWeek(t time.Time) []string {
	monday, _ := WeekRange(t)
	days := make([]string, WorkDays)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format(DateLayout)
	}
	return days
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses an entry date. Full timestamps are accepted and cut to
// their calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// RangeLabel describes the span of the distinct dates given, e.g.
// "6 - 20 January, 2025". Month and year come from the earliest date.
// Unparseable dates are ignored; an empty or fully unparseable input gives "".
func RangeLabel(dates []string) string {
	seen := map[string]bool{}
	var days []time.Time
	for _, d := range dates {
		if seen[d] {
			continue
		}
		seen[d] = true
		t, err := ParseDate(d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if len(days) == 0 {
		return ""
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	first, last := days[0], days[len(days)-1]
	return fmt.Sprintf("%d - %d %s, %d", first.Day(), last.Day(), first.Month(), first.Year())
}

// DayHeading formats a date like "Mon, Jan 6".
func DayHeading(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// ShortDate formats a date like "Jan 6, 2025".
func ShortDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatHours prints hours without trailing zeros: 40, 37.5, 0.25.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
