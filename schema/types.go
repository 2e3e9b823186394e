package schema

import (
	"maps"
	"slices"
	"strings"
)

// Node type names known to the default registry.
const (
	NodeDoc            = "doc"
	NodeText           = "text"
	NodeParagraph      = "paragraph"
	NodeHeading        = "heading"
	NodeBlockquote     = "blockquote"
	NodeHorizontalRule = "horizontal_rule"
	NodeCodeBlock      = "code_block"
	NodeHardBreak      = "hard_break"
	NodeImage          = "image"
	NodeBulletList     = "bullet_list"
	NodeOrderedList    = "ordered_list"
	NodeListItem       = "list_item"
	NodeTable          = "table"
	NodeTableRow       = "table_row"
	NodeTableCell      = "table_cell"
	NodeTableHeader    = "table_header"
)

// Mark type names known to the default registry.
const (
	MarkStrong        = "strong"
	MarkEm            = "em"
	MarkLink          = "link"
	MarkCode          = "code"
	MarkUnderline     = "underline"
	MarkStrikethrough = "strikethrough"
)

// Groups referenced by content expressions.
const (
	GroupBlock  = "block"
	GroupInline = "inline"
)

// Kind distinguishes node definitions from mark definitions.
type Kind int

const (
	KindNode Kind = iota
	KindMark
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindMark:
		return "mark"
	default:
		return "unknown"
	}
}

// TableRole tells table commands how a node participates in a table.
type TableRole string

const (
	TableRoleNone       TableRole = ""
	TableRoleTable      TableRole = "table"
	TableRoleRow        TableRole = "row"
	TableRoleCell       TableRole = "cell"
	TableRoleHeaderCell TableRole = "header_cell"
)

// Attrs holds attribute values of a node or mark instance. Numbers follow
// JSON decoding and are float64.
type Attrs map[string]any

// Clone returns a shallow copy, nil stays nil.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// Keys returns attribute names in sorted order.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// String returns attribute value as string, empty when absent or not a string.
func (a Attrs) String(name string) string {
	if s, ok := a[name].(string); ok {
		return s
	}
	return ""
}

// Int returns numeric attribute value truncated to int.
func (a Attrs) Int(name string, def int) int {
	switch v := a[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// AttributeSpec describes a single attribute of a type.
type AttributeSpec struct {
	Default  any
	Required bool
	// Validate is informational only, e.g. "string|null". Nothing enforces it.
	Validate string
}

// DOMSpec is the result of serializing a node or mark. Inner describes a
// nested element (pre > code), the content slot always belongs to the
// innermost element.
type DOMSpec struct {
	Tag         string
	Attrs       Attrs // nil renders no attributes
	Inner       *DOMSpec
	ContentSlot bool
}

// Innermost returns the element that receives content.
func (d DOMSpec) Innermost() DOMSpec {
	for d.Inner != nil {
		d = *d.Inner
	}
	return d
}

// Element is a read-only view of a parsed markup element handed to parse
// rules.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	// Style returns value of inline style property, lowercased.
	Style(property string) (string, bool)
}

// ParseRule describes how markup maps onto a node or mark. Either Tag or
// Style is set.
type ParseRule struct {
	// Tag is an element name, optionally with required attributes in
	// selector form: "img[src]".
	Tag string
	// Style is "property" or "property=value".
	Style string
	// Attrs are fixed attributes assigned when the rule matches.
	Attrs Attrs
	// GetAttrs extracts attributes from a matching element. Returning false
	// rejects the element.
	GetAttrs func(el Element) (Attrs, bool)
	// GetStyleAttrs is the style rule counterpart of GetAttrs.
	GetStyleAttrs func(value string) (Attrs, bool)
	// ClearMark removes the mark instead of adding it.
	ClearMark bool
	// PreserveWhitespace keeps whitespace of the matched content as is.
	PreserveWhitespace bool
}

// TagName returns element name part of the Tag selector.
func (r ParseRule) TagName() string {
	name, _, _ := strings.Cut(r.Tag, "[")
	return strings.ToLower(name)
}

// RequiredAttrs returns attribute names listed in the Tag selector.
func (r ParseRule) RequiredAttrs() []string {
	_, rest, found := strings.Cut(r.Tag, "[")
	if !found {
		return nil
	}
	var names []string
	for part := range strings.SplitSeq(rest, "[") {
		if name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), "]")); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// StyleProperty splits Style into property and optional required value.
func (r ParseRule) StyleProperty() (string, string) {
	prop, value, _ := strings.Cut(r.Style, "=")
	return strings.ToLower(strings.TrimSpace(prop)), strings.ToLower(strings.TrimSpace(value))
}

// SerializeFunc renders instance attributes into a DOM description.
// Implementations must not retain or mutate attrs.
type SerializeFunc func(attrs Attrs, classes *ClassMapping) DOMSpec

// TypeDefinition is a single registry entry. Behaviour lives in the two
// functions and the parse rules, dispatch is by Name.
type TypeDefinition struct {
	Kind Kind
	Name string

	// Node only.
	Content      string // content expression, empty for leaves
	Group        string // space separated group names
	Inline       bool
	Atom         bool
	Code         bool
	Defining     bool
	Isolating    bool
	Draggable    bool
	Unselectable bool
	// Marks restricts marks allowed on content. nil allows all marks, pointer
	// to empty string allows none.
	Marks     *string
	TableRole TableRole
	// Implies lists types that have to be present whenever this type is.
	Implies []string

	// Mark only.
	Noninclusive bool

	Attrs      map[string]AttributeSpec
	Serialize  SerializeFunc
	ParseRules []ParseRule
}

// InGroup reports whether definition belongs to group.
func (d *TypeDefinition) InGroup(group string) bool {
	for g := range strings.FieldsSeq(d.Group) {
		if g == group {
			return true
		}
	}
	return false
}

// IsLeaf reports whether node can have no content.
func (d *TypeDefinition) IsLeaf() bool {
	return d.Content == ""
}

// IsTextblock reports whether node holds inline content.
func (d *TypeDefinition) IsTextblock() bool {
	return d.Kind == KindNode && !d.Inline && d.Content != "" &&
		(strings.Contains(d.Content, GroupInline) || strings.Contains(d.Content, NodeText))
}

// AllowsMark reports whether mark may be applied to content of this node.
func (d *TypeDefinition) AllowsMark(mark string) bool {
	if d.Marks == nil || *d.Marks == "_" {
		return true
	}
	for m := range strings.FieldsSeq(*d.Marks) {
		if m == mark {
			return true
		}
	}
	return false
}

// DefaultAttrs fills missing attributes with their defaults. Required
// attributes without value are left absent.
func (d *TypeDefinition) DefaultAttrs(attrs Attrs) Attrs {
	if len(d.Attrs) == 0 {
		return attrs.Clone()
	}
	res := make(Attrs, len(d.Attrs))
	for name, spec := range d.Attrs {
		if v, ok := attrs[name]; ok {
			res[name] = v
			continue
		}
		if !spec.Required {
			res[name] = spec.Default
		}
	}
	return res
}

func marksExpr(s string) *string {
	return &s
}
