// Package form holds the values of a set of named input fields.
package form

import "slices"

// Fields is a flat name to value store with a resettable initial snapshot.
// It has no schema and performs no validation. Fields is not safe for
// concurrent use.
type Fields struct {
	initial map[string]string
	order   []string
	values  map[string]string
}

// New creates a store seeded with initial. The map is copied. names gives
// the display order; names missing from initial are added with "".
func New(initial map[string]string, names ...string) *Fields {
	f := &Fields{initial: make(map[string]string, len(initial))}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		f.order = append(f.order, n)
		f.initial[n] = initial[n]
	}
	var extra []string
	for n, v := range initial {
		f.initial[n] = v
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	slices.Sort(extra)
	f.order = append(f.order, extra...)

	f.Reset()
	return f
}

// OnChange records value under name. Unknown names are accepted.
func (f *Fields) OnChange(name, value string) {
	if _, ok := f.values[name]; !ok {
		if _, known := f.initial[name]; !known {
			f.order = append(f.order, name)
		}
	}
	f.values[name] = value
}

// Reset restores the initial snapshot exactly, dropping names added since.
func (f *Fields) Reset() {
	f.values = make(map[string]string, len(f.initial))
	for n, v := range f.initial {
		f.values[n] = v
	}

	order := f.order[:0]
	for _, n := range f.order {
		if _, ok := f.initial[n]; ok {
			order = append(order, n)
		}
	}
	f.order = order
}

// Value returns the current value of name, or "".
func (f *Fields) Value(name string) string {
	return f.values[name]
}

// Values returns a copy of all current values.
func (f *Fields) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for n, v := range f.values {
		out[n] = v
	}
	return out
}

// Names returns field names in display order.
func (f *Fields) Names() []string {
	return append([]string(nil), f.order...)
}
