package timeline

import (
	"testing"
	"time"
)

// date builds a UTC calendar date.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLayoutSingleDayTaskHasOneDayWidth(t *testing.T) {
	day := date(2026, 3, 10)
	chart := Layout([]Item{{ID: "t1", Start: day, Due: day, Kind: KindTask}}, 40, time.Time{})
	if len(chart.Bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(chart.Bars))
	}
	if chart.Bars[0].Width != 40 {
		t.Fatalf("width = %v, want 40", chart.Bars[0].Width)
	}
	// Daily range starts five days before the task.
	if chart.Bars[0].X != 5*40 {
		t.Fatalf("x = %v, want 200", chart.Bars[0].X)
	}
}

func TestLayoutGranularityThreshold(t *testing.T) {
	items := []Item{{ID: "t1", Start: date(2026, 1, 5), Due: date(2026, 1, 20)}}
	if got := Layout(items, 17, time.Time{}).Granularity; got != Monthly {
		t.Fatalf("granularity at 17 = %v, want monthly", got)
	}
	if got := Layout(items, 18, time.Time{}).Granularity; got != Daily {
		t.Fatalf("granularity at 18 = %v, want daily", got)
	}
}

func TestLayoutDailyRangeAndColumns(t *testing.T) {
	items := []Item{
		{ID: "a", Start: date(2026, 3, 10), Due: date(2026, 3, 12)},
		{ID: "b", Start: date(2026, 3, 8), Due: date(2026, 3, 20)},
	}
	chart := Layout(items, 20, time.Time{})
	if !chart.Start.Equal(date(2026, 3, 3)) || !chart.End.Equal(date(2026, 3, 30)) {
		t.Fatalf("range = %s..%s, want 2026-03-03..2026-03-30", chart.Start, chart.End)
	}
	if len(chart.Columns) != 28 {
		t.Fatalf("columns = %d, want 28", len(chart.Columns))
	}
	last := chart.Columns[len(chart.Columns)-1]
	if last.X != 27*20 || last.Width != 20 || last.Label != "30" {
		t.Fatalf("unexpected last column %#v", last)
	}
	if chart.Width != 28*20 {
		t.Fatalf("chart width = %v, want %v", chart.Width, 28*20)
	}
}

func TestLayoutMonthlyRangeSnapsToMonthStart(t *testing.T) {
	items := []Item{{ID: "a", Start: date(2026, 3, 10), Due: date(2026, 4, 2)}}
	chart := Layout(items, 10, time.Time{})
	// 2026-03-10 minus 15 days is 2026-02-23, snapped to 2026-02-01.
	if !chart.Start.Equal(date(2026, 2, 1)) {
		t.Fatalf("start = %s, want 2026-02-01", chart.Start)
	}
	if !chart.End.Equal(date(2026, 5, 17)) {
		t.Fatalf("end = %s, want 2026-05-17", chart.End)
	}
	wantDays := []int{28, 31, 30, 31}
	if len(chart.Columns) != len(wantDays) {
		t.Fatalf("columns = %d, want %d", len(chart.Columns), len(wantDays))
	}
	x := 0.0
	for idx, col := range chart.Columns {
		if col.Days != wantDays[idx] || col.Width != float64(wantDays[idx])*10 || col.X != x {
			t.Fatalf("column %d = %#v", idx, col)
		}
		x += col.Width
	}
	if chart.Columns[0].Label != "Feb 2026" {
		t.Fatalf("label = %q, want Feb 2026", chart.Columns[0].Label)
	}
	// Feb has 28 days, plus 9 days into March.
	if chart.Bars[0].X != 37*10 {
		t.Fatalf("bar x = %v, want 370", chart.Bars[0].X)
	}
}

func TestLayoutMilestoneWidthIsConstant(t *testing.T) {
	start := date(2026, 6, 1)
	due := date(2026, 6, 3)
	for _, px := range []float64{5, 20, 80} {
		chart := Layout([]Item{
			{ID: "m", Start: start, Due: due, Kind: KindMilestone},
			{ID: "t", Start: start, Due: due, Kind: KindTask},
		}, px, time.Time{})
		milestone, task := chart.Bars[0], chart.Bars[1]
		if milestone.Width != MilestoneWidth {
			t.Fatalf("milestone width at %v = %v, want %v", px, milestone.Width, MilestoneWidth)
		}
		if milestone.Left() != milestone.X-MilestoneWidth/2 {
			t.Fatalf("milestone not centered on x at %v", px)
		}
		if task.Width != 3*px {
			t.Fatalf("task width at %v = %v, want %v", px, task.Width, 3*px)
		}
	}
}

func TestLayoutRowsFollowStableStartOrder(t *testing.T) {
	items := []Item{
		{ID: "late", Start: date(2026, 5, 1), Due: date(2026, 5, 2)},
		{ID: "tie-1", Start: date(2026, 4, 1), Due: date(2026, 4, 9)},
		{ID: "early", Start: date(2026, 3, 1), Due: date(2026, 3, 2)},
		{ID: "tie-2", Start: date(2026, 4, 1), Due: date(2026, 4, 3)},
		{ID: "undated"},
	}
	chart := Layout(items, 30, time.Time{})
	want := []string{"early", "tie-1", "tie-2", "late"}
	if len(chart.Bars) != len(want) {
		t.Fatalf("bars = %d, want %d", len(chart.Bars), len(want))
	}
	for row, id := range want {
		if chart.Bars[row].ID != id || chart.Bars[row].Row != row {
			t.Fatalf("row %d = %q (row %d), want %q", row, chart.Bars[row].ID, chart.Bars[row].Row, id)
		}
	}
}

func TestLayoutEdgeCases(t *testing.T) {
	today := date(2026, 10, 19)
	empty := Layout(nil, 40, today)
	if !empty.Start.Equal(date(2026, 10, 14)) || len(empty.Bars) != 0 {
		t.Fatalf("empty chart start = %s bars = %d", empty.Start, len(empty.Bars))
	}

	inverted := Layout([]Item{{ID: "x", Start: date(2026, 1, 10), Due: date(2026, 1, 5)}}, 20, today)
	if inverted.Bars[0].Width != 20 {
		t.Fatalf("inverted width = %v, want one day", inverted.Bars[0].Width)
	}

	dueOnly := Layout([]Item{{ID: "d", Due: date(2026, 2, 2)}}, 20, today)
	if !dueOnly.Bars[0].Start.Equal(date(2026, 2, 2)) || dueOnly.Bars[0].Width != 20 {
		t.Fatalf("due-only bar = %#v", dueOnly.Bars[0])
	}

	huge := Layout([]Item{{ID: "h", Start: date(2020, 1, 1), Due: date(2030, 1, 1)}}, 50, today)
	if len(huge.Columns) != maxDailyColumns {
		t.Fatalf("daily columns = %d, want cap %d", len(huge.Columns), maxDailyColumns)
	}
	huge = Layout([]Item{{ID: "h", Start: date(2000, 1, 1), Due: date(2040, 1, 1)}}, 2, today)
	if len(huge.Columns) != maxMonthlyColumns {
		t.Fatalf("monthly columns = %d, want cap %d", len(huge.Columns), maxMonthlyColumns)
	}

	clamped := Layout(nil, 500, today)
	if clamped.PixelsPerDay != MaxPixelsPerDay {
		t.Fatalf("pixels per day = %v, want clamp to %v", clamped.PixelsPerDay, MaxPixelsPerDay)
	}
}

func TestChartOffsetOf(t *testing.T) {
	chart := Layout([]Item{{ID: "a", Start: date(2026, 3, 10), Due: date(2026, 3, 10)}}, 20, time.Time{})
	if got := chart.OffsetOf(date(2026, 3, 10)); got != chart.Bars[0].X {
		t.Fatalf("OffsetOf() = %v, want %v", got, chart.Bars[0].X)
	}
}

func TestZoomStepsAndClamp(t *testing.T) {
	z := NewZoom(40)
	z.In()
	if z.PixelsPerDay() != 50 {
		t.Fatalf("after In() = %v, want 50", z.PixelsPerDay())
	}
	z.Out()
	if z.PixelsPerDay() != 40 {
		t.Fatalf("after Out() = %v, want 40", z.PixelsPerDay())
	}
	for range 50 {
		z.In()
	}
	if z.PixelsPerDay() != MaxPixelsPerDay {
		t.Fatalf("zoom = %v, want max", z.PixelsPerDay())
	}
	for range 50 {
		z.Out()
	}
	if z.PixelsPerDay() != MinPixelsPerDay || z.Granularity() != Monthly {
		t.Fatalf("zoom = %v (%v), want min monthly", z.PixelsPerDay(), z.Granularity())
	}
	z.Set(18)
	if z.Granularity() != Daily {
		t.Fatal("18px/day must be daily")
	}

	custom := NewZoomWithSteps(10, 0.5, 3)
	custom.In()
	if custom.PixelsPerDay() != 12.5 {
		t.Fatalf("invalid factors must fall back to defaults, got %v", custom.PixelsPerDay())
	}
}
