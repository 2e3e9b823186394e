package editor

import (
	"slices"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

func hasMarkType(marks []*document.Mark, typ string) bool {
	return slices.ContainsFunc(marks, func(m *document.Mark) bool { return m.Type == typ })
}

// cursorMarks returns marks text typed at cursor gets.
func (st *State) cursorMarks(pos int) []*document.Mark {
	if st.StoredMarks != nil {
		return st.StoredMarks
	}
	return document.MarksAt(st.Doc, pos, st.Schema)
}

// MarkActive reports whether selected text carries mark. For a cursor
// stored marks are consulted first.
func MarkActive(st *State, typ string) bool {
	from, to := selection.From(st.Selection), selection.To(st.Selection)
	if from == to {
		return hasMarkType(st.cursorMarks(from), typ)
	}
	return document.RangeHasMark(st.Doc, from, to, typ)
}

// markApplies reports whether any textblock between from and to accepts
// mark.
func (st *State) markApplies(from, to int, typ string) bool {
	applies := false
	document.Walk(st.Doc, func(n *document.Node, pos int) bool {
		if applies || pos >= to || pos+n.Size() <= from {
			return false
		}
		def, ok := st.Schema.Node(n.Type)
		if ok && def.IsTextblock() && def.AllowsMark(typ) {
			applies = true
		}
		return !applies
	})
	return applies
}

// ToggleMark removes mark from selection when any of selected text has it
// and adds it to the whole selection otherwise. With a cursor it toggles the
// mark in stored marks. Cell selections are not supported.
func ToggleMark(typ string, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		def, ok := st.Schema.Mark(typ)
		if !ok {
			return false
		}
		if _, cells := st.Selection.(selection.CellSelection); cells {
			return false
		}
		mark := &document.Mark{Type: typ, Attrs: def.DefaultAttrs(attrs)}

		from, to := selection.From(st.Selection), selection.To(st.Selection)
		if from == to {
			rp, err := document.Resolve(st.Doc, from)
			if err != nil {
				return false
			}
			parent, ok := st.Schema.Node(rp.Parent().Type)
			if !ok || !parent.IsTextblock() || !parent.AllowsMark(typ) {
				return false
			}
			if dispatch != nil {
				marks := st.cursorMarks(from)
				if hasMarkType(marks, typ) {
					marks = document.RemoveFromSet(marks, typ)
				} else {
					marks = document.AddToSet(marks, mark, st.Schema)
				}
				if marks == nil {
					marks = []*document.Mark{}
				}
				dispatch(st.Tr().SetStoredMarks(marks))
			}
			return true
		}

		if !st.markApplies(from, to, typ) {
			return false
		}
		if dispatch == nil {
			return true
		}
		var doc *document.Node
		if document.RangeHasMark(st.Doc, from, to, typ) {
			doc = document.MapInline(st.Doc, from, to, st.Schema, func(_, n *document.Node) *document.Node {
				if !n.HasMark(typ) {
					return n
				}
				return n.WithMarks(document.RemoveFromSet(n.Marks, typ))
			})
		} else {
			doc = document.MapInline(st.Doc, from, to, st.Schema, func(parent, n *document.Node) *document.Node {
				if pdef, ok := st.Schema.Node(parent.Type); !ok || !pdef.AllowsMark(typ) {
					return n
				}
				return n.WithMarks(document.AddToSet(n.Marks, mark, st.Schema))
			})
		}
		dispatch(st.Tr().SetDoc(doc))
		return true
	}
}

// InsertText replaces selected text with text. Inserted text gets stored
// marks or marks found at the cursor, limited to those the textblock
// accepts.
func InsertText(text string) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		sel, ok := st.Selection.(selection.TextSelection)
		if !ok {
			return false
		}
		tr := st.Tr()
		if !tr.insertText(text, selection.From(sel), selection.To(sel)) {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// insertText replaces content of a single textblock between from and to
// with text and places cursor after it.
func (tr *Transaction) insertText(text string, from, to int) bool {
	s := tr.base.Schema
	rpFrom, err := document.Resolve(tr.doc, from)
	if err != nil {
		return false
	}
	rpTo, err := document.Resolve(tr.doc, to)
	if err != nil || rpFrom.Depth() != rpTo.Depth() || rpFrom.SharedDepth(rpTo) != rpFrom.Depth() {
		return false
	}
	parent, ok := s.Node(rpFrom.Parent().Type)
	if !ok || !parent.IsTextblock() || (text != "" && !s.AcceptsInline(parent.Name)) {
		return false
	}

	var nodes []*document.Node
	if text != "" {
		var marks []*document.Mark
		if tr.doc == tr.base.Doc {
			marks = tr.base.cursorMarks(from)
		} else {
			marks = document.MarksAt(tr.doc, from, s)
		}
		marks = slices.DeleteFunc(slices.Clone(marks), func(m *document.Mark) bool { return !parent.AllowsMark(m.Type) })
		nodes = append(nodes, document.NewText(text, marks...))
	}
	fromOff, toOff := rpFrom.ParentOffset, rpTo.ParentOffset
	if err := tr.Replace(rpFrom.Path(), func(tb *document.Node) *document.Node {
		return document.ReplaceInline(tb, fromOff, toOff, nodes...)
	}); err != nil {
		return false
	}
	tr.SetSelection(selection.Cursor(from + document.TextLen(text)))
	return true
}
