package grid

import (
	"maps"
	"strings"
)

// FilterMap maps column keys to filter values. Blank values place no constraint.
type FilterMap map[string]string

// Active returns the non-blank entries of f.
func (f FilterMap) Active() FilterMap {
	out := FilterMap{}
	for key, value := range f {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// Clone returns a copy of f.
func (f FilterMap) Clone() FilterMap {
	if f == nil {
		return FilterMap{}
	}
	return maps.Clone(f)
}

// Apply returns the records passing every active filter, preserving input order.
// When no filter is active the input slice itself is returned.
// Keys the schema does not know are ignored.
func Apply[R any](schema *Schema[R], records []R, filters FilterMap) []R {
	active := filters.Active()
	for key := range active {
		if !schema.Has(key) {
			delete(active, key)
		}
	}
	if len(active) == 0 {
		return records
	}

	out := make([]R, 0, len(records))
	for _, record := range records {
		if matchesAll(schema, record, active) {
			out = append(out, record)
		}
	}
	return out
}

// Matches reports whether one value passes one filter under kind's comparison policy.
func Matches(kind FilterKind, value, filter string) bool {
	if strings.TrimSpace(filter) == "" {
		return true
	}
	if kind == FilterEnum {
		return value == filter
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

// matchesAll reports whether record passes every entry in active.
func matchesAll[R any](schema *Schema[R], record R, active FilterMap) bool {
	for key, filter := range active {
		kind, _ := schema.Kind(key)
		value, _ := schema.Value(record, key)
		if !Matches(kind, value, filter) {
			return false
		}
	}
	return true
}
