package fields

import (
	"bytes"
	"encoding/json"
)

// Field is a single extracted value
type Field struct {
	Name  string
	Value string
}

// Result maps every field name of a table to its value. It serializes as a
// JSON object whose keys follow table order.
type Result []Field

// Value returns the value for name, or "" when the field is unknown or empty
func (r Result) Value(name string) string {
	for _, f := range r {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Has reports whether name is part of the result
func (r Result) Has(name string) bool {
	for _, f := range r {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Map returns the result as an unordered map
func (r Result) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// NonEmpty returns the names of fields that have a value
func (r Result) NonEmpty() []string {
	names := make([]string, 0, len(r))
	for _, f := range r {
		if f.Value != "" {
			names = append(names, f.Name)
		}
	}
	return names
}

// Clone returns an independent copy
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	c := make(Result, len(r))
	copy(c, r)
	return c
}

// MarshalJSON implements json.Marshaler
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
