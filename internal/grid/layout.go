package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrLayoutNotFound reports that no layout has been saved for a grid.
var ErrLayoutNotFound = errors.New("layout not found")

// Layout is the persisted shape of one grid's column state.
type Layout struct {
	Widths  map[string]int    `json:"widths" yaml:"widths"`
	Order   []string          `json:"order" yaml:"order"`
	Filters map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// LayoutStore loads and saves grid layouts by grid id.
type LayoutStore interface {
	LoadLayout(gridID string) (Layout, error)
	SaveLayout(gridID string, layout Layout) error
}

// Clone returns a deep copy of l.
func (l Layout) Clone() Layout {
	return Layout{
		Widths:  maps.Clone(l.Widths),
		Order:   slices.Clone(l.Order),
		Filters: maps.Clone(l.Filters),
	}
}

// EncodeLayout renders a layout as its JSON wire form.
func EncodeLayout(l Layout) ([]byte, error) {
	if l.Widths == nil {
		l.Widths = map[string]int{}
	}
	if l.Order == nil {
		l.Order = []string{}
	}
	out, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return out, nil
}

// DecodeLayout parses a layout from its JSON wire form.
func DecodeLayout(raw []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}
