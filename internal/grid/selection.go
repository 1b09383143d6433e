package grid

import "slices"

// FieldUpdates is a partial record keyed by column key.
type FieldUpdates map[string]string

// Selection tracks selected record ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection constructs an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id. Blank ids are ignored.
func (s *Selection) Toggle(id string) {
	if id == "" {
		return
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// ToggleAll clears the selection when every visible id is selected and otherwise selects exactly
// the visible ids.
func (s *Selection) ToggleAll(visible []string) {
	if s.IsAllSelected(visible) {
		s.Clear()
		return
	}
	s.ids = make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
}

// IsAllSelected reports whether visible holds at least one id and every distinct id is selected.
// Duplicate and blank ids in visible are ignored.
func (s *Selection) IsAllSelected(visible []string) bool {
	selected, distinct := s.countVisible(visible)
	return distinct > 0 && selected == distinct
}

// IsIndeterminate reports whether some, but not all, distinct visible ids are selected.
func (s *Selection) IsIndeterminate(visible []string) bool {
	selected, distinct := s.countVisible(visible)
	return selected > 0 && selected < distinct
}

// Retain drops selected ids that are not in visible.
func (s *Selection) Retain(visible []string) {
	keep := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, ok := s.ids[id]; ok {
			keep[id] = struct{}{}
		}
	}
	s.ids = keep
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = map[string]struct{}{}
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// countVisible returns how many distinct non-blank visible ids are selected, and how many there are.
func (s *Selection) countVisible(visible []string) (selected, distinct int) {
	seen := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		distinct++
		if _, ok := s.ids[id]; ok {
			selected++
		}
	}
	return selected, distinct
}
