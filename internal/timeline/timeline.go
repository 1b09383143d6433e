// Package timeline computes Gantt chart geometry: the visible date range, its day or month columns,
// and one bar per task projected onto a pixels-per-day scale.
package timeline

import (
	"math"
	"slices"
	"time"
)

// Zoom bounds and layout constants.
const (
	MinPixelsPerDay = 2.0
	MaxPixelsPerDay = 100.0
	// DailyThreshold is the zoom at and above which columns are emitted per day.
	DailyThreshold = 18.0
	// MilestoneWidth is the marker width in pixels, independent of zoom.
	MilestoneWidth = 16.0

	maxDailyColumns   = 1000
	maxMonthlyColumns = 200
)

// range buffers in days, before and after the task bounds.
const (
	dailyLeadDays    = 5
	dailyTrailDays   = 10
	monthlyLeadDays  = 15
	monthlyTrailDays = 45
)

// Kind distinguishes tasks from milestones.
type Kind string

// KindTask and related constants define the item kinds.
const (
	KindTask      Kind = "task"
	KindMilestone Kind = "milestone"
)

// Granularity is the column resolution of a chart.
type Granularity int

// Monthly and related constants define the granularities.
const (
	Monthly Granularity = iota
	Daily
)

// String returns the granularity name.
func (g Granularity) String() string {
	if g == Daily {
		return "daily"
	}
	return "monthly"
}

// GranularityFor returns the granularity used at pixelsPerDay.
func GranularityFor(pixelsPerDay float64) Granularity {
	if pixelsPerDay >= DailyThreshold {
		return Daily
	}
	return Monthly
}

// Item is one schedulable entry.
type Item struct {
	ID    string
	Label string
	Start time.Time
	Due   time.Time
	Kind  Kind
}

// Column is one header cell of the chart.
type Column struct {
	Start time.Time
	Days  int
	X     float64
	Width float64
	Label string
}

// Bar is the geometry of one item.
// For tasks X is the left edge; for milestones X is the marker center and Width is MilestoneWidth.
type Bar struct {
	ID    string
	Label string
	Kind  Kind
	Row   int
	X     float64
	Width float64
	Start time.Time
	Due   time.Time
}

// Left returns the left edge of the rendered shape.
func (b Bar) Left() float64 {
	if b.Kind == KindMilestone {
		return b.X - b.Width/2
	}
	return b.X
}

// Chart is the full derived layout for one item set and zoom.
type Chart struct {
	Granularity  Granularity
	PixelsPerDay float64
	Start        time.Time
	End          time.Time
	Columns      []Column
	Bars         []Bar
	Width        float64
}

// OffsetOf projects a date to its x offset on the chart.
func (c Chart) OffsetOf(t time.Time) float64 {
	return float64(DaysBetween(c.Start, t)) * c.PixelsPerDay
}

// Layout computes the chart for items at pixelsPerDay. today anchors the range when no item carries
// a date. Items with neither a start nor a due date get no bar.
func Layout(items []Item, pixelsPerDay float64, today time.Time) Chart {
	px := Clamp(pixelsPerDay)
	granularity := GranularityFor(px)

	dated := normalizeItems(items)
	minDate, maxDate := bounds(dated, Day(today))

	var start, end time.Time
	switch granularity {
	case Daily:
		start = minDate.AddDate(0, 0, -dailyLeadDays)
		end = maxDate.AddDate(0, 0, dailyTrailDays)
	default:
		lead := minDate.AddDate(0, 0, -monthlyLeadDays)
		start = time.Date(lead.Year(), lead.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = maxDate.AddDate(0, 0, monthlyTrailDays)
	}

	chart := Chart{
		Granularity:  granularity,
		PixelsPerDay: px,
		Start:        start,
		End:          end,
	}
	if granularity == Daily {
		chart.Columns = dailyColumns(start, end, px)
	} else {
		chart.Columns = monthlyColumns(start, end, px)
	}
	for _, col := range chart.Columns {
		chart.Width += col.Width
	}
	chart.Bars = bars(dated, start, px)
	return chart
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// normalizeItems drops undated items and fills a missing start or due date from the other.
func normalizeItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		item.Start = Day(item.Start)
		item.Due = Day(item.Due)
		switch {
		case item.Start.IsZero() && item.Due.IsZero():
			continue
		case item.Start.IsZero():
			item.Start = item.Due
		case item.Due.IsZero():
			item.Due = item.Start
		}
		if item.Kind == "" {
			item.Kind = KindTask
		}
		out = append(out, item)
	}
	return out
}

// bounds returns the earliest and latest dates across items, or today when there are none.
func bounds(items []Item, today time.Time) (time.Time, time.Time) {
	if len(items) == 0 {
		if today.IsZero() {
			today = Day(time.Now())
		}
		return today, today
	}
	minDate, maxDate := items[0].Start, items[0].Start
	for _, item := range items {
		for _, d := range []time.Time{item.Start, item.Due} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}
	return minDate, maxDate
}

// dailyColumns emits one column per day in [start, end].
func dailyColumns(start, end time.Time, px float64) []Column {
	out := make([]Column, 0, min(maxDailyColumns, DaysBetween(start, end)+1))
	d := start
	for i := 0; i < maxDailyColumns && !d.After(end); i++ {
		out = append(out, Column{
			Start: d,
			Days:  1,
			X:     float64(i) * px,
			Width: px,
			Label: d.Format("2"),
		})
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// monthlyColumns emits one column per calendar month from start's month through end's month.
func monthlyColumns(start, end time.Time, px float64) []Column {
	out := []Column{}
	m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	x := float64(DaysBetween(start, m)) * px
	for i := 0; i < maxMonthlyColumns && !m.After(end); i++ {
		days := DaysInMonth(m)
		width := float64(days) * px
		out = append(out, Column{
			Start: m,
			Days:  days,
			X:     x,
			Width: width,
			Label: m.Format("Jan 2006"),
		})
		x += width
		m = m.AddDate(0, 1, 0)
	}
	return out
}

// bars assigns rows by ascending start date, keeping input order for ties.
func bars(items []Item, start time.Time, px float64) []Bar {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return a.Start.Compare(b.Start)
	})

	out := make([]Bar, 0, len(sorted))
	for row, item := range sorted {
		bar := Bar{
			ID:    item.ID,
			Label: item.Label,
			Kind:  item.Kind,
			Row:   row,
			X:     float64(DaysBetween(start, item.Start)) * px,
			Start: item.Start,
			Due:   item.Due,
		}
		if item.Kind == KindMilestone {
			bar.Width = MilestoneWidth
		} else {
			days := max(1, DaysBetween(item.Start, item.Due)+1)
			bar.Width = float64(days) * px
		}
		out = append(out, bar)
	}
	return out
}
