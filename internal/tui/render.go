package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/timeline"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(mutedColor)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("252")).Background(accentColor)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	focusStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	dragStyle      = lipgloss.NewStyle().Reverse(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237"))
	statusStyle    = lipgloss.NewStyle().Foreground(dimColor)
	barStyle       = lipgloss.NewStyle().Foreground(accentColor)
	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	todayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	detailStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
)

// View renders the current screen.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render returns the screen text for the current state.
func (m Model) render() string {
	switch {
	case m.err != nil:
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	case !m.ready:
		return "loading..."
	case len(m.projects) == 0 && m.tasks == nil:
		return headerStyle.Render("gantry") + "\n\nNo projects yet.\nRun `gantry seed` to create a demo workspace.\nPress q to quit."
	case m.help.ShowAll:
		return m.renderTabs() + "\n\n" + m.help.View(m.keys)
	case m.mode == modeDetail:
		return m.renderTabs() + "\n" + m.renderDetail()
	default:
		return m.renderScreen()
	}
}

// renderScreen renders tabs, the active surface and the footer.
func (m Model) renderScreen() string {
	var body []string
	if m.view == viewTimeline {
		body = m.renderTimeline()
	} else {
		body = m.renderGrid()
	}
	lines := []string{m.renderTabs()}
	lines = append(lines, body...)
	for len(lines) < max(bodyTop, m.height-footerLines) {
		lines = append(lines, "")
	}
	lines = append(lines, m.renderInputLine(), statusStyle.Render(m.statusLine()), m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

// renderTabs renders the view tabs and the project name.
func (m Model) renderTabs() string {
	parts := make([]string, 0, 4)
	for v := viewTasks; v <= viewTimeline; v++ {
		if v == m.view {
			parts = append(parts, activeTabStyle.Render(v.label()))
		} else {
			parts = append(parts, tabStyle.Render(v.label()))
		}
	}
	if name := m.projectName(); name != "" {
		parts = append(parts, statusStyle.Render("│ "+name))
	}
	return strings.Join(parts, " ")
}

// projectName returns the selected project's name.
func (m Model) projectName() string {
	if m.projectIdx < 0 || m.projectIdx >= len(m.projects) {
		return ""
	}
	return m.projects[m.projectIdx].Name
}

// renderGrid renders the header row and the visible body rows.
func (m Model) renderGrid() []string {
	s := m.surface()
	if s == nil {
		return []string{"(no grid)"}
	}
	cols := s.Columns()
	drag := s.Drag()

	var header strings.Builder
	header.WriteString(checkbox(s.AllSelected(), s.Indeterminate()) + " ")
	for idx, col := range cols {
		w := cellsFor(col.Width)
		label := col.Label
		if s.Filter(col.Key) != "" {
			label += "*"
		}
		cell := fit(label, w-1) + "│"
		switch {
		case drag.Active() && drag.Key == col.Key:
			cell = dragStyle.Render(cell)
		case idx == m.colCursor:
			cell = focusStyle.Render(cell)
		default:
			cell = headerStyle.Render(cell)
		}
		header.WriteString(cell)
	}
	lines := []string{header.String()}

	rows := m.rows()
	if len(rows) == 0 {
		msg := "no rows"
		if len(s.Filters()) > 0 {
			msg = "no rows match the active filters (c clears)"
		}
		return append(lines, statusStyle.Render(msg))
	}
	end := min(len(rows), m.rowOffset+m.bodyRows())
	for idx := m.rowOffset; idx < end; idx++ {
		row := rows[idx]
		var b strings.Builder
		b.WriteString(checkbox(s.IsSelected(row.ID), false) + " ")
		for _, col := range cols {
			b.WriteString(fit(row.Values[col.Key], cellsFor(col.Width)-1) + " ")
		}
		line := b.String()
		if idx == m.cursor {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

// renderInputLine renders the filter or bulk editor, or a blank line.
func (m Model) renderInputLine() string {
	switch m.mode {
	case modeFilter:
		return m.filterInput.View() + statusStyle.Render("  enter/esc close")
	case modeBulk:
		n := 0
		if s := m.surface(); s != nil {
			n = len(s.SelectedIDs())
		}
		return m.bulkInput.View() + statusStyle.Render(fmt.Sprintf("  %d selected • enter apply • esc cancel", n))
	}
	return ""
}

// statusLine renders the status text with row and selection counts.
func (m Model) statusLine() string {
	parts := []string{m.status}
	switch {
	case m.view == viewTimeline:
		parts = append(parts, fmt.Sprintf("%d bars • %.1f px/day • %s", len(m.chart.Bars), m.chart.PixelsPerDay, m.chart.Granularity))
	case m.surface() != nil:
		s := m.surface()
		parts = append(parts, fmt.Sprintf("%d rows • %d selected", len(s.VisibleIDs()), len(s.SelectedIDs())))
		if active := s.Filters(); len(active) > 0 {
			keys := make([]string, 0, len(active))
			for k, v := range active {
				keys = append(keys, k+"="+v)
			}
			slices.Sort(keys)
			parts = append(parts, "filters: "+strings.Join(keys, ", "))
		}
	}
	return strings.Join(parts, " • ")
}

// barsByRow returns the chart bars ordered by row.
func (m Model) barsByRow() []timeline.Bar {
	bars := slices.Clone(m.chart.Bars)
	slices.SortStableFunc(bars, func(a, b timeline.Bar) int { return a.Row - b.Row })
	return bars
}

// trackCells returns the width available to the chart track.
func (m Model) trackCells() int {
	return max(10, m.width-timelineLabel-1)
}

// chartCells returns the full chart width in cells.
func (m Model) chartCells() int {
	return int(math.Ceil(m.chart.Width / pxPerCell))
}

// renderTimeline renders the period header and one line per bar.
func (m Model) renderTimeline() []string {
	track := m.trackCells()
	header := []rune(strings.Repeat(" ", track))
	for _, col := range m.chart.Columns {
		start := int(col.X/pxPerCell) - m.scrollX
		if start < 0 || start >= track {
			continue
		}
		label := []rune("│" + col.Label)
		span := max(1, int(col.Width/pxPerCell))
		for i := 0; i < len(label) && i < span && start+i < track; i++ {
			header[start+i] = label[i]
		}
	}
	lines := []string{headerStyle.Render(fit("Task", timelineLabel)) + " " + headerStyle.Render(string(header))}

	bars := m.barsByRow()
	if len(bars) == 0 {
		return append(lines, statusStyle.Render("no scheduled tasks"))
	}
	end := min(len(bars), m.rowOffset+m.bodyRows())
	for idx := m.rowOffset; idx < end; idx++ {
		bar := bars[idx]
		label := fit(bar.Label, timelineLabel)
		if idx == m.cursor {
			label = cursorStyle.Render(label)
		}
		lines = append(lines, label+" "+m.renderTrack(bar, track))
	}
	return lines
}

// todayCell returns the visible track cell of today, or -1 when today is off the chart or window.
func (m Model) todayCell(track int) int {
	if m.chart.Width <= 0 || m.now == nil {
		return -1
	}
	offset := m.chart.OffsetOf(m.now())
	if offset < 0 || offset >= m.chart.Width {
		return -1
	}
	cell := int(offset/pxPerCell) - m.scrollX
	if cell < 0 || cell >= track {
		return -1
	}
	return cell
}

// renderTrack renders one bar's track line clipped to the visible window.
func (m Model) renderTrack(bar timeline.Bar, track int) string {
	start := int(bar.Left()/pxPerCell) - m.scrollX
	glyph, style := "█", barStyle
	span := max(1, int(math.Round(bar.Width/pxPerCell)))
	if bar.Kind == timeline.KindMilestone {
		glyph, style, span = "◆", milestoneStyle, 1
		start = int(bar.X/pxPerCell) - m.scrollX
	}
	from := clamp(start, 0, track)
	to := clamp(start+span, 0, track)
	today := m.todayCell(track)
	if to <= from {
		return gap(0, track, today)
	}
	return gap(0, from, today) + style.Render(strings.Repeat(glyph, to-from)) + gap(to, track, today)
}

// gap renders blank cells [from, to), drawing the today marker when it falls inside.
func gap(from, to, today int) string {
	if to <= from {
		return ""
	}
	if today < from || today >= to {
		return strings.Repeat(" ", to-from)
	}
	return strings.Repeat(" ", today-from) + todayStyle.Render("┊") + strings.Repeat(" ", to-today-1)
}

// renderDetail renders the detail pane of the open record.
func (m Model) renderDetail() string {
	md, ok := m.detailMarkdown(m.detailID)
	if !ok {
		return statusStyle.Render("record not found")
	}
	width := max(24, m.width-4)
	return detailStyle.Width(width).Render(m.md.render(md, width-4)) + "\n" + statusStyle.Render("esc close")
}

// detailMarkdown builds the markdown shown for a task or issue.
func (m Model) detailMarkdown(id string) (string, bool) {
	if m.view == viewIssues {
		if m.issues == nil {
			return "", false
		}
		for _, issue := range m.issues.Records() {
			if issue.ID == id {
				return issueMarkdown(issue, m.issues.Value(issue, "reporter"), m.issues.Value(issue, "assignee")), true
			}
		}
		return "", false
	}
	if m.tasks == nil {
		return "", false
	}
	for _, task := range m.tasks.Records() {
		if task.ID == id {
			return taskMarkdown(task, m.tasks.Value(task, "assignee")), true
		}
	}
	return "", false
}

// taskMarkdown renders a task as markdown.
func taskMarkdown(t domain.Task, assignee string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "- **Type:** %s\n- **Status:** %s\n- **Priority:** %s\n", t.Type, t.Status, t.Priority)
	fmt.Fprintf(&b, "- **Assignee:** %s\n", orDash(assignee))
	fmt.Fprintf(&b, "- **Start:** %s\n- **Due:** %s\n", orDash(domain.FormatDate(t.StartAt)), orDash(domain.FormatDate(t.DueAt)))
	if t.Description != "" {
		b.WriteString("\n" + t.Description + "\n")
	}
	return b.String()
}

// issueMarkdown renders an issue as markdown.
func issueMarkdown(i domain.Issue, reporter, assignee string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", i.Title)
	fmt.Fprintf(&b, "- **Status:** %s\n- **Priority:** %s\n- **Severity:** %s\n", i.Status, i.Priority, i.Severity)
	fmt.Fprintf(&b, "- **Reporter:** %s\n- **Assignee:** %s\n", orDash(reporter), orDash(assignee))
	fmt.Fprintf(&b, "- **Reported:** %s\n", i.ReportedAt.UTC().Format(domain.DateLayout))
	if i.Description != "" {
		b.WriteString("\n" + i.Description + "\n")
	}
	return b.String()
}

// checkbox renders a selection box.
func checkbox(checked, indeterminate bool) string {
	switch {
	case indeterminate:
		return "[-]"
	case checked:
		return "[x]"
	default:
		return "[ ]"
	}
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	s = truncate(s, w)
	if n := len([]rune(s)); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
