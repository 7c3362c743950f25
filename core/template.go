package core

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrUnresolvedPlaceholder is returned when a template references a variable
// that is not declared (construction) or not supplied (rendering).
var ErrUnresolvedPlaceholder = errors.New("unresolved template placeholder")

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is an immutable prompt fragment with {name} placeholders.
//
// Braces that do not enclose an identifier (for example JSON snippets such
// as {"query": "..."}) are treated as literal text.
type Template struct {
	text         string
	placeholders []string
}

// NewTemplate parses text and, when allowed is non-empty, verifies that every
// placeholder is one of the allowed names.
func NewTemplate(text string, allowed ...string) (Template, error) {
	t := Template{text: text}

	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(t.placeholders, m[1]) {
			t.placeholders = append(t.placeholders, m[1])
		}
	}

	if len(allowed) > 0 {
		if err := t.Validate(allowed...); err != nil {
			return Template{}, err
		}
	}

	return t, nil
}

// MustTemplate is like NewTemplate but panics on error. Intended for
// package-level prompt definitions.
func MustTemplate(text string, allowed ...string) Template {
	t, err := NewTemplate(text, allowed...)
	if err != nil {
		panic(err)
	}
	return t
}

// Validate reports placeholders that are not in the allowed set.
func (t Template) Validate(allowed ...string) error {
	var unknown []string
	for _, p := range t.placeholders {
		if !slices.Contains(allowed, p) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: {%s} (allowed: %s)", ErrUnresolvedPlaceholder, strings.Join(unknown, "}, {"), strings.Join(allowed, ", "))
	}
	return nil
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t Template) Placeholders() []string { return slices.Clone(t.placeholders) }

// String returns the raw template text.
func (t Template) String() string { return t.text }

// IsZero reports whether the template is empty.
func (t Template) IsZero() bool { return t.text == "" }

// Render substitutes every placeholder with its value from vars.
func (t Template) Render(vars map[string]string) (string, error) {
	if len(t.placeholders) == 0 {
		return t.text, nil
	}

	for _, p := range t.placeholders {
		if _, ok := vars[p]; !ok {
			return "", fmt.Errorf("%w: {%s}", ErrUnresolvedPlaceholder, p)
		}
	}

	return placeholderPattern.ReplaceAllStringFunc(t.text, func(m string) string {
		return vars[m[1:len(m)-1]]
	}), nil
}
