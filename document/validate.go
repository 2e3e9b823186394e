package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cozy/prosemirror-go/model"

	"prosekit/schema"
)

// ValidationError describes why a document does not conform to schema.
type ValidationError struct {
	Path   []int // child indexes from the root
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return "invalid document: " + e.Reason
	}
	return fmt.Sprintf("invalid document at %s: %s", e.PathString(), e.Reason)
}

// PathString formats path as "/1/0".
func (e *ValidationError) PathString() string {
	var sb strings.Builder
	for _, i := range e.Path {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(i))
	}
	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// Validate checks document against schema: root must be a doc node, every
// node and mark type must belong to schema, required attributes must be
// present, content must satisfy content expressions and marks must be
// allowed by the enclosing node. Attribute value types are not checked.
// A doc without content is accepted.
func Validate(doc *Node, s *schema.Schema) error {
	if doc == nil {
		return &ValidationError{Reason: "document is empty"}
	}
	if doc.Type != schema.NodeDoc {
		return &ValidationError{Reason: fmt.Sprintf("top node must be %q, got %q", schema.NodeDoc, doc.Type)}
	}
	return validateNode(doc, nil, nil, s)
}

func validateNode(n *Node, parent *schema.TypeDefinition, path []int, s *schema.Schema) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Path: append([]int(nil), path...), Reason: fmt.Sprintf(format, args...)}
	}

	def, ok := s.Node(n.Type)
	if !ok {
		return fail("unknown node type %q", n.Type)
	}

	for name, spec := range def.Attrs {
		if _, present := n.Attrs[name]; spec.Required && !present {
			return fail("no value supplied for attribute %q of %q", name, n.Type)
		}
	}

	for _, m := range n.Marks {
		mdef, ok := s.Mark(m.Type)
		if !ok {
			return fail("unknown mark type %q", m.Type)
		}
		if parent != nil && !parent.AllowsMark(m.Type) {
			return fail("mark %q is not allowed in %q", m.Type, parent.Name)
		}
		for name, spec := range mdef.Attrs {
			if _, present := m.Attrs[name]; spec.Required && !present {
				return fail("no value supplied for attribute %q of mark %q", name, m.Type)
			}
		}
	}

	if n.IsText() {
		if n.Text == "" {
			return fail("empty text nodes are not allowed")
		}
		if len(n.Content) > 0 {
			return fail("text node cannot have content")
		}
		return nil
	}

	for i, child := range n.Content {
		if child == nil {
			return fail("null child at index %d", i)
		}
	}
	// an empty document is what a blank editor stores
	emptyRoot := parent == nil && len(n.Content) == 0
	if !emptyRoot && !s.ValidContent(n.Type, n.ChildTypes()) {
		return fail("invalid content for node %q: [%s] does not match %q",
			n.Type, strings.Join(n.ChildTypes(), " "), s.ContentExpr(n.Type))
	}
	for i, child := range n.Content {
		if err := validateNode(child, def, append(path, i), s); err != nil {
			return err
		}
	}
	return nil
}

// CheckModel loads document into prosemirror-go model compiled from the same
// schema and checks content of every node against it, which is what a host
// built on that library does with stored JSON. Like Validate it accepts a doc
// without content.
func CheckModel(doc *Node, s *schema.Schema) error {
	if doc == nil {
		return &ValidationError{Reason: "document is empty"}
	}
	m, err := s.Model()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("unable to encode document: %w", err)
	}
	root, err := modelFromJSON(m, raw)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return checkModelNode(root, nil, true)
}

// modelFromJSON converts panics raised by model for missing attributes into
// errors.
func modelFromJSON(m *model.Schema, raw []byte) (n *model.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return m.NodeFromJSON(raw)
}

func checkModelNode(n *model.Node, path []int, root bool) error {
	if n.IsText() {
		return nil
	}
	if !(root && n.Content.Size == 0) && !n.Type.ValidContent(n.Content) {
		return &ValidationError{
			Path:   append([]int(nil), path...),
			Reason: fmt.Sprintf("invalid content for node %s", n.Type.Name),
		}
	}
	for i, child := range n.Content.Content {
		if err := checkModelNode(child, append(path, i), false); err != nil {
			return err
		}
	}
	return nil
}
