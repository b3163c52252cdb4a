// Package fields pulls structured identity fields out of plain document text.
//
// A Table is an ordered, immutable list of Specs. Extract applies every Spec
// independently to the same text and always returns one value per Spec, empty
// when nothing matched. The first (leftmost) occurrence wins.
package fields

import (
	"fmt"
	"regexp"
	"strings"
)

// Spec describes one field: its output name, the pattern that locates it and
// an optional cleanup applied to the matched text.
//
// If Pattern has a capturing group, the first group is the value. Otherwise
// the whole match is.
type Spec struct {
	Name        string
	Pattern     *regexp.Regexp
	PostProcess func(string) string
}

// Table is an ordered set of field specs. It is safe for concurrent use.
type Table struct {
	specs []Spec
}

// NewTable validates the specs and returns a table that keeps their order
func NewTable(specs ...Spec) (*Table, error) {
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("field spec %d: empty name", i)
		}
		if s.Pattern == nil {
			return nil, fmt.Errorf("field spec %q: nil pattern", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("field spec %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
	}

	cp := make([]Spec, len(specs))
	copy(cp, specs)
	return &Table{specs: cp}, nil
}

// MustTable is like NewTable but panics on invalid specs
func MustTable(specs ...Spec) *Table {
	t, err := NewTable(specs...)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the field names in table order
func (t *Table) Names() []string {
	names := make([]string, len(t.specs))
	for i, s := range t.specs {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of fields in the table
func (t *Table) Len() int {
	return len(t.specs)
}

// Extract runs every spec against text. The result has exactly one entry per
// spec, in table order.
func (t *Table) Extract(text string) Result {
	result := make(Result, len(t.specs))
	for i, s := range t.specs {
		result[i] = Field{Name: s.Name, Value: s.match(text)}
	}
	return result
}

func (s Spec) match(text string) string {
	loc := s.Pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return ""
	}

	start, end := loc[0], loc[1]
	if len(loc) >= 4 && loc[2] >= 0 {
		start, end = loc[2], loc[3]
	}

	value := strings.TrimSpace(text[start:end])
	if s.PostProcess != nil {
		value = strings.TrimSpace(s.PostProcess(value))
	}
	return value
}
