package grid

import (
	"slices"
	"testing"
)

// fourColumns returns A..D at 100px in order.
func fourColumns() []Column {
	return []Column{
		{Key: "A", Label: "A", Width: 100, Order: 0},
		{Key: "B", Label: "B", Width: 100, Order: 1},
		{Key: "C", Label: "C", Width: 100, Order: 2},
		{Key: "D", Label: "D", Width: 100, Order: 3},
	}
}

// assertPermutation fails unless order indices are exactly 0..n-1 in slice order.
func assertPermutation(t *testing.T, cols []Column) {
	t.Helper()
	for idx, col := range cols {
		if col.Order != idx {
			t.Fatalf("column %q order = %d, want %d", col.Key, col.Order, idx)
		}
	}
}

func TestColumnModelReorderSplicesBeforeTarget(t *testing.T) {
	cases := []struct {
		name    string
		dragged string
		target  string
		want    []string
	}{
		{name: "backward", dragged: "D", target: "B", want: []string{"A", "D", "B", "C"}},
		{name: "forward", dragged: "A", target: "C", want: []string{"B", "A", "C", "D"}},
		{name: "to front", dragged: "C", target: "A", want: []string{"C", "A", "B", "D"}},
		{name: "same key", dragged: "B", target: "B", want: []string{"A", "B", "C", "D"}},
		{name: "unknown dragged", dragged: "Z", target: "B", want: []string{"A", "B", "C", "D"}},
		{name: "unknown target", dragged: "A", target: "Z", want: []string{"A", "B", "C", "D"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewColumnModel(fourColumns(), 80)
			m.Reorder(tc.dragged, tc.target)
			if got := m.Keys(); !slices.Equal(got, tc.want) {
				t.Fatalf("Keys() = %v, want %v", got, tc.want)
			}
			assertPermutation(t, m.Columns())
		})
	}
}

func TestColumnModelSetWidthClampsToFloor(t *testing.T) {
	m := NewColumnModel(fourColumns(), 80)
	if !m.SetWidth("B", 10) {
		t.Fatal("SetWidth() = false, want change")
	}
	col, _ := m.Column("B")
	if col.Width != 80 {
		t.Fatalf("width = %d, want 80", col.Width)
	}
	m.SetWidth("C", -50)
	col, _ = m.Column("C")
	if col.Width != 80 {
		t.Fatalf("negative width = %d, want 80", col.Width)
	}
	for _, key := range []string{"A", "D"} {
		other, _ := m.Column(key)
		if other.Width != 100 {
			t.Fatalf("column %q width = %d, want untouched 100", key, other.Width)
		}
	}
	if m.SetWidth("missing", 200) {
		t.Fatal("SetWidth(missing) reported a change")
	}
}

func TestColumnModelNormalizesDefaults(t *testing.T) {
	m := NewColumnModel([]Column{
		{Key: "b", Width: 10, Order: 5},
		{Key: "a", Width: 120, Order: 2},
		{Key: "a", Width: 300, Order: 0},
		{Key: " ", Width: 100},
	}, 0)
	if got := m.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Keys() = %v, want [a b]", got)
	}
	if m.MinWidth() != DefaultMinWidth {
		t.Fatalf("MinWidth() = %d, want %d", m.MinWidth(), DefaultMinWidth)
	}
	col, _ := m.Column("b")
	if col.Width != DefaultMinWidth || col.FilterKind != FilterText {
		t.Fatalf("unexpected normalized column %#v", col)
	}
	assertPermutation(t, m.Columns())
}

func TestColumnModelLayoutRoundTrip(t *testing.T) {
	m := NewColumnModel(fourColumns(), 80)
	m.SetWidth("A", 240)
	m.Reorder("D", "A")
	saved := m.Layout()

	raw, err := EncodeLayout(saved)
	if err != nil {
		t.Fatalf("EncodeLayout() error = %v", err)
	}
	decoded, err := DecodeLayout(raw)
	if err != nil {
		t.Fatalf("DecodeLayout() error = %v", err)
	}

	restored := NewColumnModel(fourColumns(), 80)
	restored.Apply(decoded)
	if got, want := restored.Columns(), m.Columns(); !slices.Equal(got, want) {
		t.Fatalf("restored columns = %#v, want %#v", got, want)
	}
}

func TestColumnModelApplyRecoversMalformedLayout(t *testing.T) {
	m := NewColumnModel(fourColumns(), 80)
	m.Apply(Layout{
		Widths: map[string]int{"A": 20, "gone": 500, "C": 150},
		Order:  []string{"C", "gone", "A", "C"},
	})
	if got := m.Keys(); !slices.Equal(got, []string{"C", "A", "B", "D"}) {
		t.Fatalf("Keys() = %v, want [C A B D]", got)
	}
	a, _ := m.Column("A")
	b, _ := m.Column("B")
	c, _ := m.Column("C")
	if a.Width != 80 || b.Width != 100 || c.Width != 150 {
		t.Fatalf("unexpected widths A=%d B=%d C=%d", a.Width, b.Width, c.Width)
	}
	assertPermutation(t, m.Columns())

	m.Reset()
	if got := m.Keys(); !slices.Equal(got, []string{"A", "B", "C", "D"}) {
		t.Fatalf("Reset() keys = %v", got)
	}
}
