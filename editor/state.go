// Package editor is a headless host for document editing: immutable editor
// state, transactions, a view delivering updates to plugins and commands
// operating on state.
package editor

import (
	"fmt"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

// State is immutable editor state. StoredMarks, when not nil, are marks
// text typed next gets instead of marks found at the cursor.
type State struct {
	Schema      *schema.Schema
	Doc         *document.Node
	Selection   selection.Selection
	StoredMarks []*document.Mark
}

// NewState validates doc against schema and binds selection to it. Missing
// document becomes a single empty paragraph, missing selection is a cursor
// at the start of the first textblock.
func NewState(s *schema.Schema, doc *document.Node, sel selection.Selection) (*State, error) {
	if doc == nil || len(doc.Content) == 0 {
		doc = document.NewNode(schema.NodeDoc, nil, document.NewNode(schema.NodeParagraph, nil))
	}
	if err := document.Validate(doc, s); err != nil {
		return nil, err
	}
	st := &State{Schema: s, Doc: doc}
	if sel == nil {
		sel = selection.Cursor(st.near(0))
	}
	resolved, err := sel.Resolve(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	st.Selection = resolved
	return st, nil
}

// Tr starts transaction on top of state.
func (st *State) Tr() *Transaction {
	return &Transaction{base: st, doc: st.Doc, sel: st.Selection}
}

// Apply returns new state produced by transaction. Document is validated,
// selection which does not fit the changed document is moved to the
// nearest textblock. Stored marks survive only transactions which touch
// neither document nor selection.
func (st *State) Apply(tr *Transaction) (*State, error) {
	if tr.base != st {
		return nil, fmt.Errorf("transaction was not started from this state")
	}
	if !tr.docChanged && !tr.selectionSet && !tr.storedSet {
		return st, nil
	}
	if tr.docChanged {
		if err := document.Validate(tr.doc, st.Schema); err != nil {
			return nil, err
		}
	}
	next := &State{Schema: st.Schema, Doc: tr.doc}
	sel, err := tr.sel.Resolve(tr.doc)
	if err != nil {
		if tr.selectionSet {
			return nil, fmt.Errorf("invalid selection: %w", err)
		}
		sel = selection.Cursor(next.near(tr.sel.AnchorPos()))
	}
	next.Selection = sel
	switch {
	case tr.storedSet:
		next.StoredMarks = tr.storedMarks
	case !tr.docChanged && !tr.selectionSet:
		next.StoredMarks = st.StoredMarks
	}
	return next, nil
}

// near returns position at the start of a textblock closest to pos,
// preferring textblocks at or after pos.
func (st *State) near(pos int) int {
	res, found := 0, false
	document.Walk(st.Doc, func(n *document.Node, at int) bool {
		if found {
			return false
		}
		def, ok := st.Schema.Node(n.Type)
		if !ok || !def.IsTextblock() {
			return !n.IsText()
		}
		res = at + 1
		found = at+1 >= pos
		return false
	})
	return res
}

// Transaction collects changes to be applied to state.
type Transaction struct {
	base         *State
	doc          *document.Node
	sel          selection.Selection
	storedMarks  []*document.Mark
	docChanged   bool
	selectionSet bool
	storedSet    bool
}

// Doc returns document as changed so far.
func (tr *Transaction) Doc() *document.Node {
	return tr.doc
}

// Selection returns selection as set so far.
func (tr *Transaction) Selection() selection.Selection {
	return tr.sel
}

// DocChanged reports whether transaction modifies the document.
func (tr *Transaction) DocChanged() bool {
	return tr.docChanged
}

// SetSelection replaces selection.
func (tr *Transaction) SetSelection(sel selection.Selection) *Transaction {
	tr.sel = sel
	tr.selectionSet = true
	return tr
}

// SetStoredMarks sets marks for the next typed text, nil clears them.
func (tr *Transaction) SetStoredMarks(marks []*document.Mark) *Transaction {
	tr.storedMarks = marks
	tr.storedSet = true
	return tr
}

// SetDoc replaces the whole document.
func (tr *Transaction) SetDoc(doc *document.Node) *Transaction {
	tr.doc = doc
	tr.docChanged = true
	return tr
}

// Replace replaces node addressed by child index path, nil result deletes
// the node.
func (tr *Transaction) Replace(path []int, fn func(n *document.Node) *document.Node) error {
	doc, err := document.ReplaceAt(tr.doc, path, fn)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document root cannot be removed")
	}
	tr.doc = doc
	tr.docChanged = true
	return nil
}

// SetNodeAttrs merges attrs into node starting at pos.
func (tr *Transaction) SetNodeAttrs(pos int, attrs schema.Attrs) error {
	n, path, err := document.NodeAt(tr.doc, pos)
	if err != nil {
		return err
	}
	if n.IsText() {
		return fmt.Errorf("no node starts at position %d", pos)
	}
	return tr.Replace(path, func(n *document.Node) *document.Node { return n.WithAttrs(attrs) })
}
