package document

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"prosekit/schema"
)

var voidElements = map[string]bool{
	"br":  true,
	"hr":  true,
	"img": true,
}

// Serializer renders documents to HTML using serialize functions of the
// schema, class mapping included.
type Serializer struct {
	schema *schema.Schema
	log    *zap.Logger
}

// NewSerializer creates serializer for schema.
func NewSerializer(s *schema.Schema, log *zap.Logger) *Serializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Serializer{schema: s, log: log.Named("html-serializer")}
}

// ToHTML renders content of doc as HTML fragment.
func (z *Serializer) ToHTML(doc *Node) (string, error) {
	out, err := z.Tree(doc)
	if err != nil {
		return "", err
	}
	return out.WriteToString()
}

// Tree renders content of doc into an etree document whose top-level
// children are the block elements.
func (z *Serializer) Tree(doc *Node) (*etree.Document, error) {
	if doc == nil || doc.Type != schema.NodeDoc {
		return nil, fmt.Errorf("top node must be %q", schema.NodeDoc)
	}
	out := etree.NewDocument()
	if err := z.writeChildren(&out.Element, doc); err != nil {
		return nil, err
	}
	return out, nil
}

func (z *Serializer) writeChildren(parent *etree.Element, n *Node) error {
	if z.schema.AcceptsInline(n.Type) {
		return z.writeInline(parent, n.Content)
	}
	for _, child := range n.Content {
		if err := z.writeNode(parent, child); err != nil {
			return err
		}
	}
	return nil
}

func (z *Serializer) writeNode(parent *etree.Element, n *Node) error {
	if n.IsText() {
		parent.CreateText(n.Text)
		return nil
	}

	spec, ok := z.schema.SerializeNode(n.Type, n.Attrs)
	if !ok {
		return fmt.Errorf("unable to serialize node of type %q", n.Type)
	}
	content := renderSpec(parent, spec)
	if !spec.Innermost().ContentSlot {
		if len(n.Content) > 0 {
			z.log.Debug("Content of leaf node ignored", zap.String("type", n.Type))
		}
		return nil
	}
	if err := z.writeChildren(content, n); err != nil {
		return err
	}
	if len(content.Child) == 0 {
		// force explicit end tag, <p/> is not valid HTML
		content.CreateText("")
	}
	return nil
}

// writeInline renders inline children reusing open mark elements shared
// with the previous sibling, so adjacent runs with a common mark end up in
// a single element.
func (z *Serializer) writeInline(parent *etree.Element, children []*Node) error {
	type openMark struct {
		mark    *Mark
		content *etree.Element
	}
	var stack []openMark
	for _, child := range children {
		keep := 0
		for keep < len(stack) && keep < len(child.Marks) && stack[keep].mark.Equal(child.Marks[keep]) {
			keep++
		}
		stack = stack[:keep]

		target := parent
		if keep > 0 {
			target = stack[keep-1].content
		}
		for _, m := range child.Marks[keep:] {
			spec, ok := z.schema.SerializeMark(m.Type, m.Attrs)
			if !ok {
				return fmt.Errorf("unable to serialize mark of type %q", m.Type)
			}
			target = renderSpec(target, spec)
			stack = append(stack, openMark{mark: m, content: target})
		}
		if err := z.writeNode(target, child); err != nil {
			return err
		}
	}
	return nil
}

// renderSpec creates elements described by spec and returns the one
// receiving content.
func renderSpec(parent *etree.Element, spec schema.DOMSpec) *etree.Element {
	el := parent.CreateElement(spec.Tag)
	for _, name := range spec.Attrs.Keys() {
		if value, ok := schema.FormatAttr(spec.Attrs[name]); ok {
			el.CreateAttr(name, value)
		}
	}
	if spec.Inner != nil {
		return renderSpec(el, *spec.Inner)
	}
	if !spec.ContentSlot && !voidElements[spec.Tag] {
		el.CreateText("")
	}
	return el
}

// ToHTML is a convenience wrapper around Serializer.
func ToHTML(doc *Node, s *schema.Schema) (string, error) {
	return NewSerializer(s, nil).ToHTML(doc)
}
