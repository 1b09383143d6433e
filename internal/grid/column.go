// Package grid implements the interactive data-grid engine shared by the task list and issue log:
// a column model, a filter engine, a selection set and the drag-driven interaction controller.
package grid

import (
	"slices"
	"strings"
)

// DefaultMinWidth is the narrowest width, in pixels, a column may be resized to.
const DefaultMinWidth = 80

// FilterKind selects the comparison policy applied to a column's filter value.
type FilterKind string

// FilterEnum and related constants define the supported filter kinds.
const (
	FilterEnum FilterKind = "enum"
	FilterText FilterKind = "text"
	FilterDate FilterKind = "date"
)

// Column describes one displayable field of a grid.
type Column struct {
	Key        string
	Label      string
	Width      int
	Order      int
	FilterKind FilterKind
}

// ColumnModel owns the mutable widths and display order of one grid's columns.
type ColumnModel struct {
	defaults []Column
	cols     []Column
	minWidth int
}

// NewColumnModel constructs a column model from default descriptors.
// Duplicate or blank keys are dropped; the remaining order indices are renumbered 0..N-1.
func NewColumnModel(defaults []Column, minWidth int) *ColumnModel {
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	seen := map[string]struct{}{}
	cleaned := make([]Column, 0, len(defaults))
	for _, col := range defaults {
		col.Key = strings.TrimSpace(col.Key)
		if col.Key == "" {
			continue
		}
		if _, ok := seen[col.Key]; ok {
			continue
		}
		seen[col.Key] = struct{}{}
		if col.FilterKind == "" {
			col.FilterKind = FilterText
		}
		col.Width = max(minWidth, col.Width)
		cleaned = append(cleaned, col)
	}
	slices.SortStableFunc(cleaned, func(a, b Column) int {
		return a.Order - b.Order
	})
	renumber(cleaned)

	m := &ColumnModel{
		defaults: cleaned,
		minWidth: minWidth,
	}
	m.Reset()
	return m
}

// MinWidth returns the width floor.
func (m *ColumnModel) MinWidth() int {
	return m.minWidth
}

// Len returns the number of columns.
func (m *ColumnModel) Len() int {
	return len(m.cols)
}

// Columns returns a copy of the columns in display order.
func (m *ColumnModel) Columns() []Column {
	return slices.Clone(m.cols)
}

// Keys returns the column keys in display order.
func (m *ColumnModel) Keys() []string {
	out := make([]string, 0, len(m.cols))
	for _, col := range m.cols {
		out = append(out, col.Key)
	}
	return out
}

// Column returns the descriptor for key.
func (m *ColumnModel) Column(key string) (Column, bool) {
	idx := m.index(key)
	if idx < 0 {
		return Column{}, false
	}
	return m.cols[idx], true
}

// Has reports whether key names a column.
func (m *ColumnModel) Has(key string) bool {
	return m.index(key) >= 0
}

// SetWidth clamps width to the floor and applies it to one column.
// It reports whether a column changed; unknown keys are ignored.
func (m *ColumnModel) SetWidth(key string, width int) bool {
	idx := m.index(key)
	if idx < 0 {
		return false
	}
	width = max(m.minWidth, width)
	if m.cols[idx].Width == width {
		return false
	}
	m.cols[idx].Width = width
	return true
}

// Reorder moves dragged to the position immediately before target, shifting the columns in between.
// It reports whether the order changed.
func (m *ColumnModel) Reorder(dragged, target string) bool {
	if dragged == target {
		return false
	}
	from := m.index(dragged)
	to := m.index(target)
	if from < 0 || to < 0 {
		return false
	}
	col := m.cols[from]
	rest := slices.Delete(slices.Clone(m.cols), from, from+1)
	insertAt := slices.IndexFunc(rest, func(c Column) bool { return c.Key == target })
	next := slices.Insert(rest, insertAt, col)
	renumber(next)
	m.cols = next
	return true
}

// Reset restores the default descriptors.
func (m *ColumnModel) Reset() {
	m.cols = slices.Clone(m.defaults)
}

// Layout returns the persistable widths and order.
func (m *ColumnModel) Layout() Layout {
	widths := make(map[string]int, len(m.cols))
	for _, col := range m.cols {
		widths[col.Key] = col.Width
	}
	return Layout{
		Widths: widths,
		Order:  m.Keys(),
	}
}

// Apply loads persisted widths and order over the defaults.
// Keys the layout does not mention keep their default descriptor; keys it mentions that no longer
// exist are dropped.
func (m *ColumnModel) Apply(layout Layout) {
	m.Reset()
	for idx := range m.cols {
		if width, ok := layout.Widths[m.cols[idx].Key]; ok {
			m.cols[idx].Width = max(m.minWidth, width)
		}
	}
	if len(layout.Order) == 0 {
		return
	}

	next := make([]Column, 0, len(m.cols))
	placed := map[string]struct{}{}
	for _, key := range layout.Order {
		idx := m.index(key)
		if idx < 0 {
			continue
		}
		if _, ok := placed[key]; ok {
			continue
		}
		placed[key] = struct{}{}
		next = append(next, m.cols[idx])
	}
	for _, col := range m.cols {
		if _, ok := placed[col.Key]; ok {
			continue
		}
		next = append(next, col)
	}
	renumber(next)
	m.cols = next
}

// index returns the display position of key, or -1.
func (m *ColumnModel) index(key string) int {
	return slices.IndexFunc(m.cols, func(c Column) bool { return c.Key == key })
}

// renumber rewrites order indices to match slice positions.
func renumber(cols []Column) {
	for idx := range cols {
		cols[idx].Order = idx
	}
}
