package editor

import (
	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

// Command inspects state and, when dispatch is not nil, dispatches the
// transaction performing its action. It reports whether the action applies
// to state, so calling it with nil dispatch tells if it is enabled.
type Command func(st *State, dispatch func(tr *Transaction)) bool

// SetNodeAttrs merges attrs into node starting at pos.
func SetNodeAttrs(pos int, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		n, _, err := document.NodeAt(st.Doc, pos)
		if err != nil || n.IsText() {
			return false
		}
		if dispatch == nil {
			return true
		}
		tr := st.Tr()
		if err := tr.SetNodeAttrs(pos, attrs); err != nil {
			return false
		}
		dispatch(tr)
		return true
	}
}

// SetSelectedNodeAttrs merges attrs into node selected by node selection.
func SetSelectedNodeAttrs(attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		ns, ok := st.Selection.(selection.NodeSelection)
		if !ok {
			return false
		}
		return SetNodeAttrs(ns.Pos, attrs)(st, dispatch)
	}
}

// SelectNodeAt selects node starting at pos.
func SelectNodeAt(pos int) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		sel, err := selection.SelectNode(st.Doc, pos)
		if err != nil {
			return false
		}
		if dispatch != nil {
			dispatch(st.Tr().SetSelection(sel))
		}
		return true
	}
}

// SetCursor places collapsed text selection at pos.
func SetCursor(pos int) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		if _, err := document.Resolve(st.Doc, pos); err != nil {
			return false
		}
		if dispatch != nil {
			dispatch(st.Tr().SetSelection(selection.Cursor(pos)))
		}
		return true
	}
}

// Always is command which is always enabled and does nothing.
func Always(*State, func(*Transaction)) bool {
	return true
}

// DeleteSelectedNode removes node of type selected by node selection. A
// node which cannot be removed without breaking its parent stays.
func DeleteSelectedNode(typ string) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		ns, ok := st.Selection.(selection.NodeSelection)
		if !ok || ns.Node == nil || ns.Node.Type != typ {
			return false
		}
		_, path, err := document.NodeAt(st.Doc, ns.Pos)
		if err != nil {
			return false
		}
		tr := st.Tr()
		if err := tr.Replace(path, func(*document.Node) *document.Node { return nil }); err != nil {
			return false
		}
		if document.Validate(tr.Doc(), st.Schema) != nil {
			return false
		}
		if dispatch != nil {
			next := &State{Schema: st.Schema, Doc: tr.Doc()}
			if textblockAt(next, ns.Pos) {
				tr.SetSelection(selection.Cursor(ns.Pos))
			} else {
				tr.SetSelection(selection.Cursor(next.near(ns.Pos)))
			}
			dispatch(tr)
		}
		return true
	}
}

func textblockAt(st *State, pos int) bool {
	rp, err := document.Resolve(st.Doc, pos)
	if err != nil {
		return false
	}
	def, ok := st.Schema.Node(rp.Parent().Type)
	return ok && def.IsTextblock()
}
