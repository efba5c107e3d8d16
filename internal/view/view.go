// Package view derives the tabular and day-grouped projections of the
// entry collection. Everything here is a pure function of its input.
package view

import (
	"math"
	"time"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// TargetHours is the fixed weekly hours target used for progress.
const TargetHours = 40

// Tone is the categorical colour of a status.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
)

// StatusTone maps a status onto its display tone.
func StatusTone(s model.Status) Tone {
	switch s {
	case model.StatusDraft:
		return ToneNeutral
	case model.StatusSubmitted:
		return ToneInfo
	case model.StatusApproved:
		return ToneSuccess
	case model.StatusRejected:
		return ToneDanger
	}
	return ToneNeutral
}

// Row is one line of the tabular view.
type Row struct {
	ID          string       `json:"id" yaml:"id"`
	WeekNumber  int          `json:"weekNumber" yaml:"weekNumber"`
	Date        string       `json:"date" yaml:"date"`
	DateLabel   string       `json:"dateLabel" yaml:"dateLabel"`
	Status      model.Status `json:"status" yaml:"status"`
	StatusLabel string       `json:"statusLabel" yaml:"statusLabel"`
	Tone        Tone         `json:"tone" yaml:"tone"`
	Hours       float64      `json:"hours" yaml:"hours"`
	Description string       `json:"description" yaml:"description"`
	Project     string       `json:"project" yaml:"project"`
	TaskName    string       `json:"taskName" yaml:"taskName"`
}

// Table renders entries as rows in their existing order.
func Table(entries []model.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			ID:          e.ID,
			WeekNumber:  e.WeekNumber,
			Date:        e.Date,
			DateLabel:   dateLabel(e.Date),
			Status:      e.Status,
			StatusLabel: e.Status.Label(),
			Tone:        StatusTone(e.Status),
			Hours:       e.HoursOrZero(),
			Description: model.Deref(e.Description),
			Project:     model.Deref(e.Project),
			TaskName:    model.Deref(e.TaskName),
		})
	}
	return rows
}

// dateLabel falls back to the raw string for dates it cannot parse.
func dateLabel(date string) string {
	t, err := timecalc.ParseDate(date)
	if err != nil {
		return date
	}
	return timecalc.ShortDate(t)
}

// Item is one entry inside a day section.
type Item struct {
	ID        string  `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Badge     string  `json:"badge" yaml:"badge"`
	BadgeTone Tone    `json:"badgeTone" yaml:"badgeTone"`
	Hours     float64 `json:"hours" yaml:"hours"`
}

// Day is one weekday section of the day-grouped view.
type Day struct {
	Date    string `json:"date" yaml:"date"`
	Heading string `json:"heading" yaml:"heading"`
	Items   []Item `json:"items" yaml:"items"`
}

// Week is the day-grouped view.
type Week struct {
	Days               []Day   `json:"days" yaml:"days"`
	TotalHours         float64 `json:"totalHours" yaml:"totalHours"`
	TargetHours        float64 `json:"targetHours" yaml:"targetHours"`
	ProgressPercentage float64 `json:"progressPercentage" yaml:"progressPercentage"`
	RangeLabel         string  `json:"rangeLabel" yaml:"rangeLabel"`
	Empty              bool    `json:"empty" yaml:"empty"`
}

// GroupByDay builds the Monday–Friday view for the week containing today.
//
// TotalHours covers the whole collection, not only the displayed week, and
// the range label spans the dates present in the collection rather than the
// displayed window.
func GroupByDay(entries []model.Entry, today time.Time) Week {
	byDate := map[string][]model.Entry{}
	dates := make([]string, 0, len(entries))
	var total float64
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
		dates = append(dates, e.Date)
		total += e.HoursOrZero()
	}

	week := Week{
		TotalHours:         total,
		TargetHours:        TargetHours,
		ProgressPercentage: Progress(total),
		RangeLabel:         timecalc.RangeLabel(dates),
		Empty:              len(entries) == 0,
	}
	for _, date := range timecalc.WorkWeek(today) {
		day := Day{Date: date, Heading: date, Items: []Item{}}
		if t, err := timecalc.ParseDate(date); err == nil {
			day.Heading = timecalc.DayHeading(t)
		}
		for _, e := range byDate[date] {
			day.Items = append(day.Items, itemOf(e))
		}
		week.Days = append(week.Days, day)
	}
	return week
}

// Progress returns total as a percentage of TargetHours, capped at 100.
func Progress(total float64) float64 {
	return math.Min(100, 100*total/TargetHours)
}

// RoundPercent rounds a progress percentage for display, halves away from zero.
func RoundPercent(p float64) int {
	return int(math.Round(p))
}

func itemOf(e model.Entry) Item {
	item := Item{ID: e.ID, Title: "Task", Hours: e.HoursOrZero()}
	switch {
	case model.Deref(e.Description) != "":
		item.Title = *e.Description
	case model.Deref(e.TaskName) != "":
		item.Title = *e.TaskName
	}
	if p := model.Deref(e.Project); p != "" {
		item.Badge, item.BadgeTone = p, ToneNeutral
	} else {
		item.Badge, item.BadgeTone = e.Status.Label(), StatusTone(e.Status)
	}
	return item
}
