package tool

import (
	"fmt"
	"sort"
)

// Set is an immutable, name-indexed collection of tools.
type Set struct {
	byName map[string]Tool
	order  []string
}

// NewSet builds a Set. Duplicate or empty names are rejected.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool: nil tool")
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool: empty tool name")
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("tool: duplicate tool name %q", name)
		}
		s.byName[name] = t
		s.order = append(s.order, name)
	}
	return s, nil
}

// Get returns the tool with the given name.
func (s *Set) Get(name string) (Tool, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.byName[name]
	return t, ok
}

// Len returns the number of tools.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns tool names in registration order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Tools returns the tools in registration order.
func (s *Set) Tools() []Tool {
	if s == nil {
		return nil
	}
	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Subset returns a Set restricted to names. Every name must be present.
func (s *Set) Subset(names ...string) (*Set, error) {
	var missing []string
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := s.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		tools = append(tools, t)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("tool: not available: %v", missing)
	}
	return NewSet(tools...)
}
