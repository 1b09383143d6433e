package grid

import (
	"slices"
	"testing"
)

// row is a minimal record used by grid tests.
type row struct {
	ID       string
	Title    string
	Status   string
	Priority string
	Due      string
}

// rowSchema registers the test record fields.
func rowSchema() *Schema[row] {
	return NewSchema(
		func(r row) string { return r.ID },
		Field[row]{Column: Column{Key: "title", Label: "Title", Width: 200, FilterKind: FilterText}, Value: func(r row) string { return r.Title }},
		Field[row]{Column: Column{Key: "status", Label: "Status", Width: 120, FilterKind: FilterEnum}, Value: func(r row) string { return r.Status }},
		Field[row]{Column: Column{Key: "priority", Label: "Priority", Width: 100, FilterKind: FilterEnum}, Value: func(r row) string { return r.Priority }},
		Field[row]{Column: Column{Key: "due", Label: "Due", Width: 110, FilterKind: FilterDate}, Value: func(r row) string { return r.Due }},
		Field[row]{Column: Column{Key: "notes", Label: "Notes", Width: 100}},
	)
}

// ids extracts record ids.
func ids(rows []row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyEmptyFilterIsIdentity(t *testing.T) {
	records := []row{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	for _, filters := range []FilterMap{nil, {}, {"status": ""}, {"title": "   "}} {
		got := Apply(rowSchema(), records, filters)
		if len(got) != len(records) || &got[0] != &records[0] {
			t.Fatalf("Apply(%v) did not return the input slice", filters)
		}
	}
}

func TestApplyANDAcrossColumns(t *testing.T) {
	records := []row{
		{ID: "1", Status: "Open", Priority: "High"},
		{ID: "2", Status: "Open", Priority: "Low"},
	}
	got := Apply(rowSchema(), records, FilterMap{"status": "Open", "priority": "High"})
	if !slices.Equal(ids(got), []string{"1"}) {
		t.Fatalf("Apply() ids = %v, want [1]", ids(got))
	}
}

func TestApplyComparisonPolicies(t *testing.T) {
	records := []row{
		{ID: "1", Title: "Design Mockups", Status: "In Progress", Due: "2026-03-14"},
		{ID: "2", Title: "Backend API", Status: "in progress", Due: "2026-04-02"},
		{ID: "3", Title: "Mock server", Status: "Done", Due: "2026-03-01"},
	}
	cases := []struct {
		name    string
		filters FilterMap
		want    []string
	}{
		{name: "text substring case-insensitive", filters: FilterMap{"title": "mock"}, want: []string{"1", "3"}},
		{name: "enum exact", filters: FilterMap{"status": "In Progress"}, want: []string{"1"}},
		{name: "enum no partial", filters: FilterMap{"status": "Progress"}, want: []string{}},
		{name: "date substring", filters: FilterMap{"due": "2026-03"}, want: []string{"1", "3"}},
		{name: "missing value reads empty", filters: FilterMap{"notes": "x"}, want: []string{}},
		{name: "unknown key ignored", filters: FilterMap{"gone": "x", "title": "api"}, want: []string{"2"}},
		{name: "stable order", filters: FilterMap{"due": "2026"}, want: []string{"1", "2", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Apply(rowSchema(), records, tc.filters))
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Apply() ids = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectionToggleAll(t *testing.T) {
	visible := []string{"a", "b", "c"}
	s := NewSelection()

	s.ToggleAll(visible)
	if !slices.Equal(s.IDs(), visible) {
		t.Fatalf("IDs() after first ToggleAll = %v, want %v", s.IDs(), visible)
	}
	if !s.IsAllSelected(visible) || s.IsIndeterminate(visible) {
		t.Fatal("expected all-selected, not indeterminate")
	}

	s.ToggleAll(visible)
	if s.Len() != 0 {
		t.Fatalf("Len() after second ToggleAll = %d, want 0", s.Len())
	}
	if s.IsAllSelected(visible) {
		t.Fatal("empty selection reported all-selected")
	}
}

func TestSelectionToggleAllReplacesHiddenIDs(t *testing.T) {
	s := NewSelection()
	s.Toggle("hidden")
	s.Toggle("a")
	if !s.IsIndeterminate([]string{"a", "b"}) {
		t.Fatal("expected indeterminate with one of two visible selected")
	}
	s.ToggleAll([]string{"a", "b"})
	if !slices.Equal(s.IDs(), []string{"a", "b"}) {
		t.Fatalf("IDs() = %v, want [a b]", s.IDs())
	}
}

func TestSelectionIgnoresDuplicateVisibleIDs(t *testing.T) {
	visible := []string{"a", "b", "a", ""}
	s := NewSelection()
	s.ToggleAll(visible)
	if !s.IsAllSelected(visible) || s.IsIndeterminate(visible) {
		t.Fatalf("expected all-selected over duplicates, IDs() = %v", s.IDs())
	}
	s.ToggleAll(visible)
	if s.Len() != 0 {
		t.Fatalf("Len() after second ToggleAll = %d, want 0", s.Len())
	}
	s.Toggle("a")
	if !s.IsIndeterminate(visible) {
		t.Fatal("expected indeterminate with one of two distinct ids selected")
	}
}

func TestSelectionEdgeCases(t *testing.T) {
	s := NewSelection()
	if s.IsAllSelected(nil) || s.IsIndeterminate(nil) {
		t.Fatal("empty visible set must be neither all nor indeterminate")
	}
	s.Toggle("")
	if s.Len() != 0 {
		t.Fatal("blank id must be ignored")
	}
	s.Toggle("a")
	s.Toggle("a")
	if s.Contains("a") {
		t.Fatal("double toggle must deselect")
	}
	s.Toggle("a")
	s.Toggle("b")
	s.Retain([]string{"b", "c"})
	if !slices.Equal(s.IDs(), []string{"b"}) {
		t.Fatalf("Retain() ids = %v, want [b]", s.IDs())
	}
}
