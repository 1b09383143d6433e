package grid

// Field binds a column descriptor to the function that extracts its value from a record.
type Field[R any] struct {
	Column Column
	Value  func(R) string
}

// Schema is the field-accessor registry for one record type.
type Schema[R any] struct {
	fields []Field[R]
	byKey  map[string]int
	id     func(R) string
}

// NewSchema constructs a schema. Fields with a nil accessor read as empty strings.
func NewSchema[R any](id func(R) string, fields ...Field[R]) *Schema[R] {
	s := &Schema[R]{
		byKey: make(map[string]int, len(fields)),
		id:    id,
	}
	for _, f := range fields {
		if _, ok := s.byKey[f.Column.Key]; ok || f.Column.Key == "" {
			continue
		}
		s.byKey[f.Column.Key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Columns returns the default column descriptors in registration order.
func (s *Schema[R]) Columns() []Column {
	out := make([]Column, 0, len(s.fields))
	for idx, f := range s.fields {
		col := f.Column
		col.Order = idx
		out = append(out, col)
	}
	return out
}

// ID returns the record identifier.
func (s *Schema[R]) ID(record R) string {
	if s.id == nil {
		return ""
	}
	return s.id(record)
}

// Value returns the string value of key for record and whether key is registered.
func (s *Schema[R]) Value(record R, key string) (string, bool) {
	idx, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	f := s.fields[idx]
	if f.Value == nil {
		return "", true
	}
	return f.Value(record), true
}

// Kind returns the filter kind registered for key.
func (s *Schema[R]) Kind(key string) (FilterKind, bool) {
	idx, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	kind := s.fields[idx].Column.FilterKind
	if kind == "" {
		kind = FilterText
	}
	return kind, true
}

// Has reports whether key is registered.
func (s *Schema[R]) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}
