package tui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
	"github.com/evanschultz/gantry/internal/timeline"
)

// Service is the application surface the model reads and writes through.
type Service interface {
	ListProjects(context.Context, bool) ([]domain.Project, error)
	TaskGrid(context.Context, string, app.GridOptions) (*grid.Controller[domain.Task], error)
	IssueGrid(context.Context, string, app.GridOptions) (*grid.Controller[domain.Issue], error)
	TaskTimeline(context.Context, string, float64) (timeline.Chart, error)
	DefaultZoom() float64
	BulkUpdateTasks(context.Context, []string, grid.FieldUpdates) ([]domain.Task, error)
	BulkUpdateIssues(context.Context, []string, grid.FieldUpdates) ([]domain.Issue, error)
}

// viewKind selects the active surface.
type viewKind int

// viewTasks and related constants define the surfaces in tab order.
const (
	viewTasks viewKind = iota
	viewIssues
	viewTimeline
)

// label returns the tab title.
func (v viewKind) label() string {
	switch v {
	case viewIssues:
		return "Issues"
	case viewTimeline:
		return "Timeline"
	default:
		return "Tasks"
	}
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeFilter
	modeBulk
	modeDetail
)

// Screen geometry in terminal cells. Grid widths are stored in pixels and rendered at pxPerCell.
const (
	pxPerCell     = 8
	checkboxCells = 4
	tabRow        = 0
	headerRow     = 1
	bodyTop       = 2
	footerLines   = 3
	timelineLabel = 24
	resizeStep    = 16
	scrollStep    = 8
)

// gridSurface is the record-independent part of a grid controller.
type gridSurface interface {
	GridID() string
	Columns() []grid.Column
	MinWidth() int
	VisibleIDs() []string
	Filter(string) string
	Filters() grid.FilterMap
	SetFilter(string, string)
	ClearFilters()
	OpenFilter(string)
	CloseFilter()
	ClickOutside()
	OpenFilterKey() string
	Drag() grid.DragState
	BeginResize(string, int)
	BeginReorder(string, int)
	SetWidth(string, int)
	Reorder(string, string)
	ResetLayout()
	RowClick(string) bool
	ToggleRow(string)
	ToggleAll()
	IsSelected(string) bool
	AllSelected() bool
	Indeterminate() bool
	SelectedIDs() []string
	BulkUpdate(grid.FieldUpdates) bool
}

// gridRow is one rendered record.
type gridRow struct {
	ID     string
	Values map[string]string
}

// bulkRequest is the last selection handed to a grid's bulk callback.
type bulkRequest struct {
	ids     []string
	updates grid.FieldUpdates
}

// bulkQueue receives bulk callbacks from controllers so Update can turn them into commands.
type bulkQueue struct {
	pending *bulkRequest
}

// push records one bulk request.
func (q *bulkQueue) push(ids []string, updates grid.FieldUpdates) {
	q.pending = &bulkRequest{ids: slices.Clone(ids), updates: updates}
}

// take returns and clears the pending request.
func (q *bulkQueue) take() (bulkRequest, bool) {
	if q.pending == nil {
		return bulkRequest{}, false
	}
	req := *q.pending
	q.pending = nil
	return req, true
}

// Model represents model data used by this package.
type Model struct {
	svc    Service
	logger *log.Logger

	keys        keyMap
	help        help.Model
	filterInput textinput.Model
	bulkInput   textinput.Model
	md          *markdownRenderer
	copyText    func(string) error
	now         func() time.Time

	scope *grid.PointerScope
	bulk  *bulkQueue
	zoom  *timeline.Zoom

	projects         []domain.Project
	projectIdx       int
	pendingProjectID string
	tasks            *grid.Controller[domain.Task]
	issues           *grid.Controller[domain.Issue]
	chart            timeline.Chart

	view       viewKind
	mode       inputMode
	cursor     int
	colCursor  int
	rowOffset  int
	scrollX    int
	detailID   string
	pressedKey string

	width  int
	height int
	ready  bool
	status string
	err    error
}

// loadedMsg carries loaded message data through update handling.
type loadedMsg struct {
	projects   []domain.Project
	projectIdx int
	tasks      *grid.Controller[domain.Task]
	issues     *grid.Controller[domain.Issue]
	chart      timeline.Chart
	err        error
}

// timelineLoadedMsg carries a recomputed chart.
type timelineLoadedMsg struct {
	chart timeline.Chart
	err   error
}

// bulkDoneMsg reports a finished bulk write.
type bulkDoneMsg struct {
	count int
	err   error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	filterInput := textinput.New()
	filterInput.Prompt = "filter: "
	filterInput.Placeholder = "value (empty clears)"
	filterInput.CharLimit = 120
	bulkInput := textinput.New()
	bulkInput.Prompt = "set: "
	bulkInput.Placeholder = "status=Done, assignee=Dee Dev"
	bulkInput.CharLimit = 240

	zoom := timeline.NewZoom(timeline.DefaultPixelsPerDay)
	if svc != nil {
		zoom = timeline.NewZoom(svc.DefaultZoom())
	}
	m := Model{
		svc:         svc,
		logger:      log.New(io.Discard),
		keys:        newKeyMap(),
		help:        h,
		filterInput: filterInput,
		bulkInput:   bulkInput,
		md:          newMarkdownRenderer("dark"),
		copyText:    clipboard.WriteAll,
		now:         time.Now,
		scope:       &grid.PointerScope{},
		bulk:        &bulkQueue{},
		zoom:        zoom,
		status:      "loading...",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("load failed", "err", msg.err)
			return m, nil
		}
		m.err = nil
		m.projects = msg.projects
		m.projectIdx = msg.projectIdx
		m.tasks = msg.tasks
		m.issues = msg.issues
		m.chart = msg.chart
		m.pendingProjectID = ""
		if len(m.projects) == 0 {
			m.status = "no projects"
			return m, nil
		}
		if m.status == "loading..." {
			m.status = "ready"
		}
		m.clampCursor()
		return m, nil

	case timelineLoadedMsg:
		if msg.err != nil {
			m.status = "timeline failed: " + msg.err.Error()
			return m, nil
		}
		m.chart = msg.chart
		m.clampCursor()
		return m, nil

	case bulkDoneMsg:
		if msg.err != nil {
			m.status = "bulk update failed: " + msg.err.Error()
			m.logger.Error("bulk update failed", "count", msg.count, "err", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("updated %d rows", msg.count)
		return m, m.loadData

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)
	}
	return m, nil
}

// loadData loads projects and the grids and chart of the selected project.
func (m Model) loadData() tea.Msg {
	if m.svc == nil {
		return loadedMsg{err: fmt.Errorf("tui: service is required")}
	}
	ctx := context.Background()
	projects, err := m.svc.ListProjects(ctx, false)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(projects) == 0 {
		return loadedMsg{projects: projects}
	}

	projectIdx := clamp(m.projectIdx, 0, len(projects)-1)
	if pendingProjectID := strings.TrimSpace(m.pendingProjectID); pendingProjectID != "" {
		for idx, project := range projects {
			if project.ID == pendingProjectID {
				projectIdx = idx
				break
			}
		}
	}
	projectID := projects[projectIdx].ID

	bulk := m.bulk
	tasks, err := m.svc.TaskGrid(ctx, projectID, app.GridOptions{
		Capture:      m.scope,
		OnBulkUpdate: bulk.push,
	})
	if err != nil {
		return loadedMsg{err: err}
	}
	issues, err := m.svc.IssueGrid(ctx, projectID, app.GridOptions{
		Capture:      m.scope,
		OnBulkUpdate: bulk.push,
	})
	if err != nil {
		return loadedMsg{err: err}
	}
	chart, err := m.svc.TaskTimeline(ctx, projectID, m.zoom.PixelsPerDay())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{
		projects:   projects,
		projectIdx: projectIdx,
		tasks:      tasks,
		issues:     issues,
		chart:      chart,
	}
}

// loadTimeline recomputes the chart at the current zoom.
func (m Model) loadTimeline() tea.Msg {
	projectID := m.projectID()
	if projectID == "" {
		return timelineLoadedMsg{}
	}
	chart, err := m.svc.TaskTimeline(context.Background(), projectID, m.zoom.PixelsPerDay())
	return timelineLoadedMsg{chart: chart, err: err}
}

// bulkUpdateCmd writes one bulk request through the service.
func (m Model) bulkUpdateCmd(view viewKind, req bulkRequest) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		var err error
		if view == viewIssues {
			_, err = svc.BulkUpdateIssues(context.Background(), req.ids, req.updates)
		} else {
			_, err = svc.BulkUpdateTasks(context.Background(), req.ids, req.updates)
		}
		return bulkDoneMsg{count: len(req.ids), err: err}
	}
}

// projectID returns the selected project id, or "".
func (m Model) projectID() string {
	if m.projectIdx < 0 || m.projectIdx >= len(m.projects) {
		return ""
	}
	return m.projects[m.projectIdx].ID
}

// surface returns the active grid, or nil on the timeline.
func (m Model) surface() gridSurface {
	switch m.view {
	case viewTasks:
		if m.tasks != nil {
			return m.tasks
		}
	case viewIssues:
		if m.issues != nil {
			return m.issues
		}
	}
	return nil
}

// rows returns the visible rows of the active grid.
func (m Model) rows() []gridRow {
	switch m.view {
	case viewTasks:
		return controllerRows(m.tasks)
	case viewIssues:
		return controllerRows(m.issues)
	}
	return nil
}

// controllerRows flattens a controller's filtered view into display rows.
func controllerRows[R any](c *grid.Controller[R]) []gridRow {
	if c == nil {
		return nil
	}
	cols := c.Columns()
	view := c.View()
	out := make([]gridRow, 0, len(view))
	for _, record := range view {
		values := make(map[string]string, len(cols))
		for _, col := range cols {
			values[col.Key] = c.Value(record, col.Key)
		}
		out = append(out, gridRow{ID: c.ID(record), Values: values})
	}
	return out
}

// rowCount returns the number of navigable rows in the active view.
func (m Model) rowCount() int {
	if m.view == viewTimeline {
		return len(m.chart.Bars)
	}
	if s := m.surface(); s != nil {
		return len(s.VisibleIDs())
	}
	return 0
}

// bodyRows returns how many body lines fit between the header and the footer.
func (m Model) bodyRows() int {
	return max(1, m.height-bodyTop-footerLines)
}

// clampCursor keeps the row and column cursors in range and the cursor row on screen.
func (m *Model) clampCursor() {
	n := m.rowCount()
	m.cursor = clamp(m.cursor, 0, max(0, n-1))
	if s := m.surface(); s != nil {
		m.colCursor = clamp(m.colCursor, 0, max(0, len(s.Columns())-1))
	}
	rows := m.bodyRows()
	if m.cursor < m.rowOffset {
		m.rowOffset = m.cursor
	}
	if m.cursor >= m.rowOffset+rows {
		m.rowOffset = m.cursor - rows + 1
	}
	m.rowOffset = clamp(m.rowOffset, 0, max(0, n-rows))
}

// focusedColumn returns the column under the column cursor.
func (m Model) focusedColumn() (grid.Column, bool) {
	s := m.surface()
	if s == nil {
		return grid.Column{}, false
	}
	cols := s.Columns()
	if m.colCursor < 0 || m.colCursor >= len(cols) {
		return grid.Column{}, false
	}
	return cols[m.colCursor], true
}

// cursorID returns the record id under the row cursor.
func (m Model) cursorID() string {
	if m.view == viewTimeline {
		if m.cursor >= 0 && m.cursor < len(m.chart.Bars) {
			return m.barsByRow()[m.cursor].ID
		}
		return ""
	}
	s := m.surface()
	if s == nil {
		return ""
	}
	ids := s.VisibleIDs()
	if m.cursor < 0 || m.cursor >= len(ids) {
		return ""
	}
	return ids[m.cursor]
}

// handleKey routes key presses by mode.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeBulk:
		return m.handleBulkKey(msg)
	case modeDetail:
		if key.Matches(msg, m.keys.cancel) || key.Matches(msg, m.keys.details) {
			m.mode = modeNone
			m.detailID = ""
			return m, nil
		}
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.err != nil {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.reload):
			m.err = nil
			m.status = "reloading..."
			return m, m.loadData
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.nextView):
		m.switchView((m.view + 1) % 3)
		return m, nil
	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		m.switchView(viewKind(msg.String()[0] - '1'))
		return m, nil
	case key.Matches(msg, m.keys.nextProject):
		if len(m.projects) < 2 {
			m.status = "only one project"
			return m, nil
		}
		m.projectIdx = (m.projectIdx + 1) % len(m.projects)
		m.cursor, m.rowOffset, m.scrollX = 0, 0, 0
		m.status = "project: " + m.projects[m.projectIdx].Name
		return m, m.loadData
	case key.Matches(msg, m.keys.moveUp):
		m.cursor--
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.cursor++
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.details):
		return m.openDetail(m.cursorID())
	}

	if m.view == viewTimeline {
		return m.handleTimelineKey(msg)
	}
	return m.handleGridKey(msg)
}

// handleTimelineKey handles keys specific to the chart.
func (m Model) handleTimelineKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.zoomIn):
		return m.zoomBy(true)
	case key.Matches(msg, m.keys.zoomOut):
		return m.zoomBy(false)
	case key.Matches(msg, m.keys.moveLeft):
		m.scrollX = max(0, m.scrollX-scrollStep)
	case key.Matches(msg, m.keys.moveRight):
		m.scrollX = min(m.scrollX+scrollStep, max(0, m.chartCells()-m.trackCells()))
	}
	return m, nil
}

// zoomBy steps the zoom and reloads the chart.
func (m Model) zoomBy(in bool) (tea.Model, tea.Cmd) {
	before := m.zoom.PixelsPerDay()
	if in {
		m.zoom.In()
	} else {
		m.zoom.Out()
	}
	after := m.zoom.PixelsPerDay()
	if after == before {
		m.status = fmt.Sprintf("zoom limit %.0f px/day", after)
		return m, nil
	}
	m.status = fmt.Sprintf("zoom %.1f px/day (%s)", after, m.zoom.Granularity())
	m.scrollX = 0
	return m, m.loadTimeline
}

// handleGridKey handles keys specific to the task and issue grids.
func (m Model) handleGridKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	s := m.surface()
	if s == nil {
		return m, nil
	}
	col, hasCol := m.focusedColumn()
	cols := s.Columns()

	switch {
	case key.Matches(msg, m.keys.moveLeft):
		m.colCursor = max(0, m.colCursor-1)
	case key.Matches(msg, m.keys.moveRight):
		m.colCursor = min(len(cols)-1, m.colCursor+1)
	case key.Matches(msg, m.keys.toggleRow):
		if id := m.cursorID(); id != "" {
			s.ToggleRow(id)
		}
	case key.Matches(msg, m.keys.toggleAll):
		s.ToggleAll()
		m.status = fmt.Sprintf("%d selected", len(s.SelectedIDs()))
	case key.Matches(msg, m.keys.filter):
		if hasCol {
			return m.startFilter(s, col.Key)
		}
	case key.Matches(msg, m.keys.clearFilters):
		s.ClearFilters()
		m.status = "filters cleared"
		m.clampCursor()
	case key.Matches(msg, m.keys.narrow):
		if hasCol {
			s.SetWidth(col.Key, col.Width-resizeStep)
		}
	case key.Matches(msg, m.keys.widen):
		if hasCol {
			s.SetWidth(col.Key, col.Width+resizeStep)
		}
	case key.Matches(msg, m.keys.shiftLeft):
		if hasCol && m.colCursor > 0 {
			s.Reorder(col.Key, cols[m.colCursor-1].Key)
			m.colCursor--
		}
	case key.Matches(msg, m.keys.shiftRight):
		if hasCol && m.colCursor < len(cols)-1 {
			s.Reorder(cols[m.colCursor+1].Key, col.Key)
			m.colCursor++
		}
	case key.Matches(msg, m.keys.resetLayout):
		s.ResetLayout()
		m.colCursor = 0
		m.status = "layout reset"
		m.clampCursor()
	case key.Matches(msg, m.keys.bulkUpdate):
		if len(s.SelectedIDs()) == 0 {
			m.status = "select rows first"
			return m, nil
		}
		m.mode = modeBulk
		m.bulkInput.SetValue("")
		return m, m.bulkInput.Focus()
	case key.Matches(msg, m.keys.copyIDs):
		return m.copySelection(s)
	}
	return m, nil
}

// startFilter opens the filter editor on key.
func (m Model) startFilter(s gridSurface, columnKey string) (tea.Model, tea.Cmd) {
	s.OpenFilter(columnKey)
	if s.OpenFilterKey() == "" {
		return m, nil
	}
	m.mode = modeFilter
	m.filterInput.Prompt = columnKey + ": "
	m.filterInput.SetValue(s.Filter(columnKey))
	m.filterInput.CursorEnd()
	return m, m.filterInput.Focus()
}

// closeFilter closes the filter editor.
func (m *Model) closeFilter(outside bool) {
	if s := m.surface(); s != nil {
		if outside {
			s.ClickOutside()
		} else {
			s.CloseFilter()
		}
	}
	m.mode = modeNone
	m.filterInput.Blur()
}

// handleFilterKey edits the open column filter. Each edit applies immediately.
func (m Model) handleFilterKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) || key.Matches(msg, m.keys.confirm) {
		m.closeFilter(false)
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if s := m.surface(); s != nil {
		if openKey := s.OpenFilterKey(); openKey != "" {
			s.SetFilter(openKey, m.filterInput.Value())
			m.clampCursor()
		}
	}
	return m, cmd
}

// handleBulkKey edits and submits a bulk update.
func (m Model) handleBulkKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.mode = modeNone
		m.bulkInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		return m.submitBulk()
	}
	var cmd tea.Cmd
	m.bulkInput, cmd = m.bulkInput.Update(msg)
	return m, cmd
}

// submitBulk parses the bulk input and hands it to the active grid.
func (m Model) submitBulk() (tea.Model, tea.Cmd) {
	updates, err := parseFieldUpdates(m.bulkInput.Value())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.mode = modeNone
	m.bulkInput.Blur()
	s := m.surface()
	if s == nil || !s.BulkUpdate(updates) {
		m.status = "nothing to update"
		return m, nil
	}
	req, ok := m.bulk.take()
	if !ok {
		return m, nil
	}
	m.status = fmt.Sprintf("updating %d rows...", len(req.ids))
	return m, m.bulkUpdateCmd(m.view, req)
}

// parseFieldUpdates parses "field=value, field=value".
func parseFieldUpdates(raw string) (grid.FieldUpdates, error) {
	out := grid.FieldUpdates{}
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, value, ok := strings.Cut(part, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", part)
		}
		out[strings.ToLower(field)] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no field updates")
	}
	return out, nil
}

// copySelection copies the selected ids, one per line.
func (m Model) copySelection(s gridSurface) (tea.Model, tea.Cmd) {
	ids := s.SelectedIDs()
	if len(ids) == 0 {
		m.status = "select rows first"
		return m, nil
	}
	if err := m.copyText(strings.Join(ids, "\n")); err != nil {
		m.status = "copy failed: " + err.Error()
		m.logger.Warn("clipboard write failed", "err", err)
		return m, nil
	}
	m.status = fmt.Sprintf("copied %d ids", len(ids))
	return m, nil
}

// switchView changes the active surface and cancels any in-flight interaction.
func (m *Model) switchView(v viewKind) {
	if v == m.view {
		return
	}
	if s := m.surface(); s != nil {
		if s.Drag().Active() {
			m.scope.Dispatch(grid.PointerEvent{Kind: grid.PointerUp})
		}
		s.CloseFilter()
	}
	m.view = v
	m.mode = modeNone
	m.cursor, m.colCursor, m.rowOffset, m.scrollX = 0, 0, 0, 0
	m.pressedKey = ""
	m.clampCursor()
}

// openDetail shows the record with id.
func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	if id == "" {
		return m, nil
	}
	if _, ok := m.detailMarkdown(id); !ok {
		return m, nil
	}
	m.detailID = id
	m.mode = modeDetail
	return m, nil
}

// headerHit returns the column under x on the header row and whether x is on its resize handle.
func headerHit(cols []grid.Column, x int) (string, bool) {
	if x < checkboxCells {
		return "", false
	}
	pos := checkboxCells
	for _, col := range cols {
		w := cellsFor(col.Width)
		if x < pos+w {
			return col.Key, x == pos+w-1
		}
		pos += w
	}
	return "", false
}

// handleMouseClick handles mouse click.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll {
		return m, nil
	}
	if msg.Y == tabRow {
		return m.clickTab(msg.X)
	}
	switch m.mode {
	case modeFilter:
		if msg.Y != m.inputRow() {
			m.closeFilter(true)
		}
		return m, nil
	case modeBulk:
		return m, nil
	case modeDetail:
		m.mode = modeNone
		m.detailID = ""
		return m, nil
	}

	if m.view == viewTimeline {
		idx := m.rowOffset + msg.Y - bodyTop
		if msg.Y >= bodyTop && idx < len(m.chart.Bars) {
			m.cursor = idx
			return m.openDetail(m.cursorID())
		}
		return m, nil
	}

	s := m.surface()
	if s == nil {
		return m, nil
	}
	if msg.Y == headerRow {
		if msg.X < checkboxCells {
			s.ToggleAll()
			return m, nil
		}
		columnKey, handle := headerHit(s.Columns(), msg.X)
		if columnKey == "" {
			return m, nil
		}
		if handle {
			s.BeginResize(columnKey, msg.X*pxPerCell)
			return m, nil
		}
		s.BeginReorder(columnKey, msg.X*pxPerCell)
		m.pressedKey = columnKey
		return m, nil
	}

	idx := m.rowOffset + msg.Y - bodyTop
	ids := s.VisibleIDs()
	if msg.Y < bodyTop || msg.Y >= bodyTop+m.bodyRows() || idx >= len(ids) {
		return m, nil
	}
	m.cursor = idx
	if msg.X < checkboxCells {
		s.ToggleRow(ids[idx])
		return m, nil
	}
	if !s.RowClick(ids[idx]) {
		return m, nil
	}
	return m.openDetail(ids[idx])
}

// clickTab switches to the tab under x.
func (m Model) clickTab(x int) (tea.Model, tea.Cmd) {
	pos := 0
	for v := viewTasks; v <= viewTimeline; v++ {
		w := len(v.label()) + 2
		if x >= pos && x < pos+w {
			m.switchView(v)
			return m, nil
		}
		pos += w + 1
	}
	return m, nil
}

// handleMouseMotion forwards pointer moves to a captured grid.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.scope.Active() {
		return m, nil
	}
	m.scope.Dispatch(grid.PointerEvent{Kind: grid.PointerMove, X: msg.X * pxPerCell})
	if s := m.surface(); s != nil && s.Drag().Mode == grid.DragResizing {
		if col, ok := findColumn(s.Columns(), s.Drag().Key); ok {
			m.status = fmt.Sprintf("%s: %dpx", col.Label, col.Width)
		}
	}
	return m, nil
}

// handleMouseRelease ends a captured drag. Releasing a header press in place opens its filter.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	pressed := m.pressedKey
	m.pressedKey = ""
	if !m.scope.Active() {
		return m, nil
	}
	s := m.surface()
	if s == nil || s.Drag().Mode != grid.DragReordering {
		m.scope.Dispatch(grid.PointerEvent{Kind: grid.PointerUp, X: msg.X * pxPerCell})
		return m, nil
	}

	target := ""
	if msg.Y == headerRow {
		target, _ = headerHit(s.Columns(), msg.X)
	}
	if target != "" && target != pressed {
		m.scope.Dispatch(grid.PointerEvent{Kind: grid.PointerDrop, Key: target, X: msg.X * pxPerCell})
		m.status = fmt.Sprintf("moved %s before %s", pressed, target)
		m.colCursor = slices.IndexFunc(s.Columns(), func(c grid.Column) bool { return c.Key == pressed })
		m.clampCursor()
		return m, nil
	}
	m.scope.Dispatch(grid.PointerEvent{Kind: grid.PointerDragEnd})
	if target == pressed && pressed != "" {
		m.colCursor = slices.IndexFunc(s.Columns(), func(c grid.Column) bool { return c.Key == pressed })
		return m.startFilter(s, pressed)
	}
	return m, nil
}

// handleMouseWheel zooms the chart or scrolls the grid.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll {
		return m, nil
	}
	if m.view == viewTimeline {
		switch msg.Button {
		case tea.MouseWheelUp:
			return m.zoomBy(true)
		case tea.MouseWheelDown:
			return m.zoomBy(false)
		}
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.cursor--
	case tea.MouseWheelDown:
		m.cursor++
	}
	m.clampCursor()
	return m, nil
}

// inputRow returns the screen row of the filter and bulk input line.
func (m Model) inputRow() int {
	return max(bodyTop, m.height-footerLines)
}

// findColumn returns the column with key.
func findColumn(cols []grid.Column, columnKey string) (grid.Column, bool) {
	for _, col := range cols {
		if col.Key == columnKey {
			return col, true
		}
	}
	return grid.Column{}, false
}

// cellsFor converts a pixel width to terminal cells.
func cellsFor(widthPx int) int {
	return max(3, widthPx/pxPerCell)
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
