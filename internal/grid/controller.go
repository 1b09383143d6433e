package grid

import (
	"errors"
	"io"
	"maps"
	"strings"

	"github.com/charmbracelet/log"
)

// Config holds construction settings for a Controller.
type Config[R any] struct {
	// GridID keys the persisted layout; task and issue grids use distinct ids.
	GridID string
	Schema *Schema[R]
	// Defaults overrides the schema's default descriptors when non-empty.
	Defaults []Column
	MinWidth int
	Store    LayoutStore
	Capture  PointerCapture
	Logger   *log.Logger

	OnEdit       func(R)
	OnBulkUpdate func(ids []string, updates FieldUpdates)
}

// Controller owns one grid's column layout, filters, selection and drag state.
type Controller[R any] struct {
	gridID    string
	schema    *Schema[R]
	columns   *ColumnModel
	filters   FilterMap
	selection *Selection
	records   []R
	view      []R

	drag       DragState
	release    func()
	openFilter string

	store   LayoutStore
	capture PointerCapture
	logger  *log.Logger
	onEdit  func(R)
	onBulk  func([]string, FieldUpdates)
}

// NewController constructs a controller and loads its persisted layout.
func NewController[R any](cfg Config[R]) *Controller[R] {
	if cfg.Schema == nil {
		cfg.Schema = NewSchema[R](nil)
	}
	defaults := cfg.Defaults
	if len(defaults) == 0 {
		defaults = cfg.Schema.Columns()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Controller[R]{
		gridID:    strings.TrimSpace(cfg.GridID),
		schema:    cfg.Schema,
		columns:   NewColumnModel(defaults, cfg.MinWidth),
		filters:   FilterMap{},
		selection: NewSelection(),
		store:     cfg.Store,
		capture:   cfg.Capture,
		logger:    logger,
		onEdit:    cfg.OnEdit,
		onBulk:    cfg.OnBulkUpdate,
	}
	c.load()
	return c
}

// GridID returns the layout key of the grid.
func (c *Controller[R]) GridID() string {
	return c.gridID
}

// Columns returns the columns in display order.
func (c *Controller[R]) Columns() []Column {
	return c.columns.Columns()
}

// MinWidth returns the column width floor.
func (c *Controller[R]) MinWidth() int {
	return c.columns.MinWidth()
}

// Layout returns the current persistable layout including filters.
func (c *Controller[R]) Layout() Layout {
	l := c.columns.Layout()
	if active := c.filters.Active(); len(active) > 0 {
		l.Filters = map[string]string(active)
	}
	return l
}

// SetRecords replaces the record source and recomputes the filtered view.
func (c *Controller[R]) SetRecords(records []R) {
	c.records = records
	c.refresh()
}

// Records returns the unfiltered record source.
func (c *Controller[R]) Records() []R {
	return c.records
}

// View returns the filtered records.
func (c *Controller[R]) View() []R {
	return c.view
}

// VisibleIDs returns the ids of the filtered records in view order.
func (c *Controller[R]) VisibleIDs() []string {
	out := make([]string, 0, len(c.view))
	for _, record := range c.view {
		out = append(out, c.schema.ID(record))
	}
	return out
}

// Value returns the display value of key for record.
func (c *Controller[R]) Value(record R, key string) string {
	v, _ := c.schema.Value(record, key)
	return v
}

// ID returns the identifier of record.
func (c *Controller[R]) ID(record R) string {
	return c.schema.ID(record)
}

// Filters returns a copy of the active filter map.
func (c *Controller[R]) Filters() FilterMap {
	return c.filters.Active()
}

// Filter returns the filter value of one column.
func (c *Controller[R]) Filter(key string) string {
	return c.filters[key]
}

// SetFilter sets or clears one column's filter. Unknown keys are ignored.
func (c *Controller[R]) SetFilter(key, value string) {
	if !c.columns.Has(key) || !c.schema.Has(key) {
		return
	}
	if strings.TrimSpace(value) == "" {
		if _, ok := c.filters[key]; !ok {
			return
		}
		delete(c.filters, key)
	} else {
		if c.filters[key] == value {
			return
		}
		c.filters[key] = value
	}
	c.refresh()
	c.persist()
}

// ClearFilters removes every filter.
func (c *Controller[R]) ClearFilters() {
	if len(c.filters) == 0 {
		return
	}
	c.filters = FilterMap{}
	c.refresh()
	c.persist()
}

// OpenFilter opens the filter editor for key and closes any other.
func (c *Controller[R]) OpenFilter(key string) {
	if !c.columns.Has(key) {
		return
	}
	c.openFilter = key
}

// CloseFilter closes the open filter editor.
func (c *Controller[R]) CloseFilter() {
	c.openFilter = ""
}

// ClickOutside handles a click landing outside every filter editor.
func (c *Controller[R]) ClickOutside() {
	c.CloseFilter()
}

// OpenFilterKey returns the column whose filter editor is open, or "".
func (c *Controller[R]) OpenFilterKey() string {
	return c.openFilter
}

// Drag returns the current drag state.
func (c *Controller[R]) Drag() DragState {
	return c.drag
}

// BeginResize starts a resize drag on key's handle at pointer x.
func (c *Controller[R]) BeginResize(key string, x int) {
	col, ok := c.columns.Column(key)
	if !ok {
		return
	}
	c.HandlePointer(PointerEvent{Kind: PointerResizeStart, Key: key, X: x, Width: col.Width})
}

// BeginReorder starts a reorder drag of key.
func (c *Controller[R]) BeginReorder(key string, x int) {
	if !c.columns.Has(key) {
		return
	}
	c.HandlePointer(PointerEvent{Kind: PointerDragStart, Key: key, X: x})
}

// HandlePointer advances the drag machine and applies its effect.
func (c *Controller[R]) HandlePointer(ev PointerEvent) {
	wasActive := c.drag.Active()
	next, effect := Step(c.drag, ev, c.columns.MinWidth())
	c.drag = next

	changed := false
	switch effect.Kind {
	case EffectSetWidth:
		changed = c.columns.SetWidth(effect.Key, effect.Width)
	case EffectReorder:
		changed = c.columns.Reorder(effect.Key, effect.Target)
	}

	switch {
	case !wasActive && next.Active():
		if c.capture != nil {
			c.release = c.capture.Capture(c)
		}
	case wasActive && !next.Active():
		c.releaseCapture()
	}

	if changed {
		c.persist()
	}
}

// SetWidth sets one column's width directly.
func (c *Controller[R]) SetWidth(key string, width int) {
	if c.columns.SetWidth(key, width) {
		c.persist()
	}
}

// Reorder moves dragged before target directly.
func (c *Controller[R]) Reorder(dragged, target string) {
	if c.columns.Reorder(dragged, target) {
		c.persist()
	}
}

// ResetLayout restores default widths and order and clears filters.
func (c *Controller[R]) ResetLayout() {
	c.releaseCapture()
	c.drag = DragState{}
	c.columns.Reset()
	c.filters = FilterMap{}
	c.openFilter = ""
	c.refresh()
	c.persist()
}

// RowClick invokes the edit callback for the visible record with id.
func (c *Controller[R]) RowClick(id string) bool {
	record, ok := c.find(id)
	if !ok {
		return false
	}
	if c.onEdit != nil {
		c.onEdit(record)
	}
	return true
}

// ToggleRow flips selection of a visible record. Ids outside the view are ignored.
func (c *Controller[R]) ToggleRow(id string) {
	if _, ok := c.find(id); !ok {
		return
	}
	c.selection.Toggle(id)
}

// ToggleAll selects every visible record, or clears the selection when all are selected.
func (c *Controller[R]) ToggleAll() {
	c.selection.ToggleAll(c.VisibleIDs())
}

// IsSelected reports whether id is selected.
func (c *Controller[R]) IsSelected(id string) bool {
	return c.selection.Contains(id)
}

// AllSelected reports whether every visible record is selected.
func (c *Controller[R]) AllSelected() bool {
	return c.selection.IsAllSelected(c.VisibleIDs())
}

// Indeterminate reports whether some, but not all, visible records are selected.
func (c *Controller[R]) Indeterminate() bool {
	return c.selection.IsIndeterminate(c.VisibleIDs())
}

// SelectedIDs returns the selected ids.
func (c *Controller[R]) SelectedIDs() []string {
	return c.selection.IDs()
}

// BulkUpdate sends the selected ids and updates to the bulk callback, then clears the selection.
// It reports whether a request was emitted.
func (c *Controller[R]) BulkUpdate(updates FieldUpdates) bool {
	if c.selection.Len() == 0 || len(updates) == 0 {
		return false
	}
	ids := c.selection.IDs()
	if c.onBulk != nil {
		c.onBulk(ids, maps.Clone(updates))
	}
	c.selection.Clear()
	return true
}

// refresh recomputes the filtered view and drops selected ids that left it.
func (c *Controller[R]) refresh() {
	c.view = Apply(c.schema, c.records, c.filters)
	c.selection.Retain(c.VisibleIDs())
}

// find returns the visible record with id.
func (c *Controller[R]) find(id string) (R, bool) {
	for _, record := range c.view {
		if c.schema.ID(record) == id {
			return record, true
		}
	}
	var zero R
	return zero, false
}

// releaseCapture deregisters the global pointer capture if held.
func (c *Controller[R]) releaseCapture() {
	if c.release == nil {
		return
	}
	release := c.release
	c.release = nil
	release()
}

// load applies the persisted layout, falling back to defaults.
func (c *Controller[R]) load() {
	if c.store == nil || c.gridID == "" {
		return
	}
	layout, err := c.store.LoadLayout(c.gridID)
	if err != nil {
		if !errors.Is(err, ErrLayoutNotFound) {
			c.logger.Warn("grid layout load failed; using defaults", "grid", c.gridID, "err", err)
		}
		return
	}
	c.columns.Apply(layout)
	for key, value := range layout.Filters {
		if !c.columns.Has(key) || !c.schema.Has(key) || strings.TrimSpace(value) == "" {
			continue
		}
		c.filters[key] = value
	}
	c.logger.Debug("grid layout loaded", "grid", c.gridID, "columns", c.columns.Len(), "filters", len(c.filters))
}

// persist saves the current layout.
func (c *Controller[R]) persist() {
	if c.store == nil || c.gridID == "" {
		return
	}
	if err := c.store.SaveLayout(c.gridID, c.Layout()); err != nil {
		c.logger.Warn("grid layout save failed", "grid", c.gridID, "err", err)
	}
}
