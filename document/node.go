// Package document holds the serialized document tree exchanged with the
// editor together with its validation, position resolution and conversion
// to and from HTML.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"reflect"
	"unicode/utf16"

	"prosekit/schema"
)

// EmptyDocJSON is the serialized form of a document without content.
const EmptyDocJSON = `{"type":"doc","content":[]}`

// Node is a document node. Nodes are treated as immutable once part of a
// tree: edits produce new nodes along the changed path so unchanged
// subtrees keep their identity.
type Node struct {
	Type    string       `json:"type"`
	Attrs   schema.Attrs `json:"attrs,omitempty"`
	Content []*Node      `json:"content,omitempty"`
	Text    string       `json:"text,omitempty"`
	Marks   []*Mark      `json:"marks,omitempty"`
}

// Mark is formatting applied to inline node.
type Mark struct {
	Type  string       `json:"type"`
	Attrs schema.Attrs `json:"attrs,omitempty"`
}

// EmptyDoc returns document without content.
func EmptyDoc() *Node {
	return &Node{Type: schema.NodeDoc, Content: []*Node{}}
}

// NewText creates text node.
func NewText(text string, marks ...*Mark) *Node {
	return &Node{Type: schema.NodeText, Text: text, Marks: marks}
}

// NewNode creates node with content.
func NewNode(typ string, attrs schema.Attrs, content ...*Node) *Node {
	return &Node{Type: typ, Attrs: attrs, Content: content}
}

// Parse decodes JSON document. It only checks JSON shape, see Validate for
// schema conformance.
func Parse(r io.Reader) (*Node, error) {
	var raw any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "document must be an object"}
	}
	if len(obj) == 0 {
		return nil, &ValidationError{Reason: "document cannot be empty"}
	}
	if _, ok := obj["type"]; !ok {
		return nil, &ValidationError{Reason: "document must have a 'type' field"}
	}

	// decode again into typed tree, the generic pass above only gives
	// clearer diagnostics for common mistakes
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	return &doc, nil
}

// ParseBytes is Parse for in-memory data.
func ParseBytes(data []byte) (*Node, error) {
	return Parse(bytes.NewReader(data))
}

// MarshalJSON keeps "content" for container nodes even when empty so an
// empty document serializes to EmptyDocJSON.
func (n *Node) MarshalJSON() ([]byte, error) {
	type plain Node
	if n.Content != nil && len(n.Content) == 0 {
		return json.Marshal(struct {
			*plain
			Content []*Node `json:"content"`
		}{(*plain)(n), n.Content})
	}
	return json.Marshal((*plain)(n))
}

func (n *Node) IsText() bool {
	return n.Type == schema.NodeText
}

// ChildCount returns number of direct children.
func (n *Node) ChildCount() int {
	return len(n.Content)
}

// Child returns i-th child or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Content) {
		return nil
	}
	return n.Content[i]
}

// ChildTypes returns types of direct children.
func (n *Node) ChildTypes() []string {
	types := make([]string, len(n.Content))
	for i, c := range n.Content {
		types[i] = c.Type
	}
	return types
}

// IsLeaf reports whether node has no content slot in given schema.
func (n *Node) IsLeaf(s *schema.Schema) bool {
	if n.IsText() {
		return true
	}
	if s != nil {
		if def, ok := s.Node(n.Type); ok {
			return def.IsLeaf()
		}
	}
	return len(n.Content) == 0 && n.Type != schema.NodeDoc
}

// Size returns node size in position units: text length in UTF-16 code
// units, 1 for leaves, content size plus 2 otherwise. Leaves are nodes without
// children that are not known containers.
func (n *Node) Size() int {
	if n.IsText() {
		return TextLen(n.Text)
	}
	if len(n.Content) == 0 && schema.LeafNode(n.Type) {
		return 1
	}
	return n.ContentSize() + 2
}

// ContentSize returns sum of children sizes.
func (n *Node) ContentSize() int {
	size := 0
	for _, c := range n.Content {
		size += c.Size()
	}
	return size
}

// TextContent concatenates text of all descendants.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var buf bytes.Buffer
	for _, c := range n.Content {
		buf.WriteString(c.TextContent())
	}
	return buf.String()
}

// Attr returns attribute value.
func (n *Node) Attr(name string) any {
	return n.Attrs[name]
}

// WithAttrs returns shallow copy of n with attributes merged.
func (n *Node) WithAttrs(attrs schema.Attrs) *Node {
	cp := *n
	cp.Attrs = n.Attrs.Clone()
	if cp.Attrs == nil {
		cp.Attrs = make(schema.Attrs, len(attrs))
	}
	maps.Copy(cp.Attrs, attrs)
	return &cp
}

// WithType returns shallow copy of n with another type.
func (n *Node) WithType(typ string) *Node {
	cp := *n
	cp.Type = typ
	return &cp
}

// WithContent returns shallow copy of n with new children.
func (n *Node) WithContent(content []*Node) *Node {
	cp := *n
	cp.Content = content
	return &cp
}

// Equal compares nodes structurally.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.Type != o.Type || n.Text != o.Text || !attrsEqual(n.Attrs, o.Attrs) ||
		!MarksEqual(n.Marks, o.Marks) || len(n.Content) != len(o.Content) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Equal(o.Content[i]) {
			return false
		}
	}
	return true
}

// HasMark reports whether node carries mark of type.
func (n *Node) HasMark(typ string) bool {
	for _, m := range n.Marks {
		if m.Type == typ {
			return true
		}
	}
	return false
}

// Equal compares marks by type and attributes.
func (m *Mark) Equal(o *Mark) bool {
	return m.Type == o.Type && attrsEqual(m.Attrs, o.Attrs)
}

// MarksEqual compares mark sets, order matters.
func MarksEqual(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b schema.Attrs) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// TextLen returns length of text in UTF-16 code units, the unit in which
// editor positions count characters.
func TextLen(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// SplitText splits text at offset given in UTF-16 code units. Offset falling
// inside a surrogate pair is moved past it.
func SplitText(text string, offset int) (string, string) {
	if offset <= 0 {
		return "", text
	}
	n := 0
	for i, r := range text {
		if n >= offset {
			return text[:i], text[i:]
		}
		n += utf16.RuneLen(r)
	}
	return text, ""
}
