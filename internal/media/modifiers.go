package media

import "strings"

// Modifier is one parsed reference modifier: a scalar value, a comma list,
// or a bare boolean flag.
type Modifier struct {
	Value  string
	Values []string
	Flag   bool
}

// Modifiers maps modifier names to values. Both the reference grammar and
// the path-suffix form of list/play endpoints parse into this shape.
type Modifiers map[string]Modifier

// Flag creates a boolean-true modifier.
func Flag() Modifier { return Modifier{Flag: true} }

// Scalar creates a single-value modifier.
func Scalar(v string) Modifier { return Modifier{Value: v} }

// List creates a comma-list modifier.
func List(vs ...string) Modifier { return Modifier{Values: vs} }

// Bool reports whether the named modifier is present as a flag or truthy
// scalar.
func (m Modifiers) Bool(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if v.Flag {
		return true
	}
	switch strings.ToLower(v.Value) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

// Get returns the scalar value for key.
func (m Modifiers) Get(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.Value, true
}

// GetList returns the value list for key, treating a scalar as a
// single-element list.
func (m Modifiers) GetList(key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	if len(v.Values) > 0 {
		return v.Values
	}
	if v.Value != "" {
		return []string{v.Value}
	}
	return nil
}

// Merge overlays other onto m. With overwrite, entries in other replace
// existing ones; otherwise existing entries win. Structured per-item
// properties merge with overwrite=true so they beat inline-string
// modifiers for the same key.
func (m Modifiers) Merge(other Modifiers, overwrite bool) {
	for k, v := range other {
		if _, exists := m[k]; exists && !overwrite {
			continue
		}
		m[k] = v
	}
}

// Clone returns a shallow copy.
func (m Modifiers) Clone() Modifiers {
	out := make(Modifiers, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
