package css

import (
	"sort"
	"strings"
)

// CSSValue represents a parsed CSS property value.
type CSSValue struct {
	Raw     string  // Original value string
	Value   float64 // Numeric value (if applicable)
	Unit    string  // Unit (em, px, %, etc.)
	Keyword string  // Keyword value (bold, italic, center, etc.)
}

// IsKeyword returns true if this is a keyword value (no numeric component).
func (v CSSValue) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == "" && v.Value == 0
}

// IsNumeric returns true if value carries a number, with or without unit.
func (v CSSValue) IsNumeric() bool {
	return v.Keyword == "" && v.Raw != ""
}

// String returns normalized textual form of the value.
func (v CSSValue) String() string {
	if v.Keyword != "" {
		return v.Keyword
	}
	return strings.ToLower(v.Raw)
}

// Declarations is the content of an inline style attribute. Later
// declarations override earlier ones, as in the browser.
type Declarations map[string]CSSValue

// Get returns value of the property (property names are case-insensitive).
func (d Declarations) Get(prop string) (CSSValue, bool) {
	v, ok := d[strings.ToLower(prop)]
	return v, ok
}

// Has reports whether property is present and, when value is not empty,
// whether its normalized value equals value.
func (d Declarations) Has(prop, value string) bool {
	v, ok := d.Get(prop)
	if !ok {
		return false
	}
	return value == "" || v.String() == strings.ToLower(value)
}

// Properties returns declared property names in sorted order.
func (d Declarations) Properties() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
