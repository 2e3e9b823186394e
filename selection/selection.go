// Package selection describes what part of a document is selected in the
// editor and projects selections inside tables onto the table cell grid.
package selection

import (
	"fmt"

	"prosekit/document"
	"prosekit/schema"
)

// Selection is a value owned by the editor. Selections are compared with
// Equal only, two selections with the same coordinates are equal even when
// the document they point into has changed.
type Selection interface {
	// AnchorPos is the side of the selection that does not move when it is
	// extended.
	AnchorPos() int
	// HeadPos is the moving side.
	HeadPos() int
	Equal(other Selection) bool
	// Resolve checks selection against doc and returns it bound to doc.
	Resolve(doc *document.Node) (Selection, error)
}

// From returns the smaller end of selection.
func From(sel Selection) int {
	return min(sel.AnchorPos(), sel.HeadPos())
}

// To returns the bigger end of selection.
func To(sel Selection) int {
	return max(sel.AnchorPos(), sel.HeadPos())
}

// TextSelection is a cursor or a range of text.
type TextSelection struct {
	Anchor int
	Head   int
}

// Cursor returns collapsed text selection.
func Cursor(pos int) TextSelection {
	return TextSelection{Anchor: pos, Head: pos}
}

func (s TextSelection) AnchorPos() int { return s.Anchor }
func (s TextSelection) HeadPos() int   { return s.Head }

// Empty reports whether selection is a cursor.
func (s TextSelection) Empty() bool {
	return s.Anchor == s.Head
}

func (s TextSelection) Equal(other Selection) bool {
	o, ok := other.(TextSelection)
	return ok && o == s
}

func (s TextSelection) Resolve(doc *document.Node) (Selection, error) {
	for _, pos := range []int{s.Anchor, s.Head} {
		if _, err := document.Resolve(doc, pos); err != nil {
			return nil, fmt.Errorf("text selection: %w", err)
		}
	}
	return s, nil
}

// NodeSelection selects a single node.
type NodeSelection struct {
	Pos  int
	Node *document.Node
}

// SelectNode returns selection of node starting at pos.
func SelectNode(doc *document.Node, pos int) (NodeSelection, error) {
	n, _, err := document.NodeAt(doc, pos)
	if err != nil {
		return NodeSelection{}, fmt.Errorf("node selection: %w", err)
	}
	if n.IsText() {
		return NodeSelection{}, fmt.Errorf("node selection: text at position %d cannot be selected as node", pos)
	}
	return NodeSelection{Pos: pos, Node: n}, nil
}

func (s NodeSelection) AnchorPos() int { return s.Pos }

func (s NodeSelection) HeadPos() int {
	if s.Node == nil {
		return s.Pos
	}
	return s.Pos + s.Node.Size()
}

// Equal compares position only.
func (s NodeSelection) Equal(other Selection) bool {
	o, ok := other.(NodeSelection)
	return ok && o.Pos == s.Pos
}

func (s NodeSelection) Resolve(doc *document.Node) (Selection, error) {
	return SelectNode(doc, s.Pos)
}

// CellSelection selects a rectangle of table cells. Anchor and Head are
// positions directly before the anchor and head cells.
type CellSelection struct {
	Anchor int
	Head   int
}

func (s CellSelection) AnchorPos() int { return s.Anchor }
func (s CellSelection) HeadPos() int   { return s.Head }

func (s CellSelection) Equal(other Selection) bool {
	o, ok := other.(CellSelection)
	return ok && o == s
}

func (s CellSelection) Resolve(doc *document.Node) (Selection, error) {
	anchor, _, err := document.NodeAt(doc, s.Anchor)
	if err != nil {
		return nil, fmt.Errorf("cell selection anchor: %w", err)
	}
	head, _, err := document.NodeAt(doc, s.Head)
	if err != nil {
		return nil, fmt.Errorf("cell selection head: %w", err)
	}
	if !isCell(anchor) || !isCell(head) {
		return nil, fmt.Errorf("cell selection must point to cells, got %q and %q", anchor.Type, head.Type)
	}
	ta, th := TableAround(doc, s.Anchor), TableAround(doc, s.Head)
	if ta == nil || th == nil || ta.Node != th.Node {
		return nil, fmt.Errorf("cell selection must stay within a single table")
	}
	return s, nil
}

// NodeOf returns node selected by node selection or nil.
func NodeOf(sel Selection) *document.Node {
	if ns, ok := sel.(NodeSelection); ok {
		return ns.Node
	}
	return nil
}

func roleOf(n *document.Node) schema.TableRole {
	if n == nil {
		return schema.TableRoleNone
	}
	return schema.NodeRole(n.Type)
}

func isCell(n *document.Node) bool {
	role := roleOf(n)
	return role == schema.TableRoleCell || role == schema.TableRoleHeaderCell
}

func isHeaderCell(n *document.Node) bool {
	return roleOf(n) == schema.TableRoleHeaderCell
}
