package editor

import (
	"maps"
	"slices"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

// blockRange is a run of sibling blocks covering a selection.
type blockRange struct {
	from, to   *document.ResolvedPos
	depth      int // depth of the parent
	start, end int // child indexes within the parent
}

func (r *blockRange) parent() *document.Node {
	return r.from.Node(r.depth)
}

func (r *blockRange) path() []int {
	return r.from.Path()[:r.depth]
}

func (r *blockRange) children() []*document.Node {
	return r.parent().Content[r.start:r.end]
}

// newBlockRange returns innermost range of blocks between from and to. When
// from sits in a textblock the range holds that textblock.
func newBlockRange(s *schema.Schema, doc *document.Node, from, to int) *blockRange {
	rpFrom, err := document.Resolve(doc, from)
	if err != nil {
		return nil
	}
	rpTo, err := document.Resolve(doc, to)
	if err != nil {
		return nil
	}
	depth := rpFrom.Depth()
	if def, ok := s.Node(rpFrom.Parent().Type); (ok && def.IsTextblock()) || from == to {
		depth--
	}
	for d := depth; d >= 0; d-- {
		if to > rpFrom.End(d) || rpTo.Depth() < d {
			continue
		}
		r := &blockRange{from: rpFrom, to: rpTo, depth: d, start: rpFrom.Index(d), end: rpTo.IndexAfter(d)}
		if r.start < r.end {
			return r
		}
	}
	return nil
}

func types(nodes []*document.Node) []string {
	res := make([]string, len(nodes))
	for i, n := range nodes {
		res[i] = n.Type
	}
	return res
}

func splice(content []*document.Node, start, end int, nodes ...*document.Node) []*document.Node {
	return slices.Concat(content[:start], nodes, content[end:])
}

// shift moves selection by delta positions.
func shift(sel selection.Selection, delta int) selection.Selection {
	switch s := sel.(type) {
	case selection.TextSelection:
		return selection.TextSelection{Anchor: s.Anchor + delta, Head: s.Head + delta}
	case selection.NodeSelection:
		return selection.NodeSelection{Pos: s.Pos + delta}
	case selection.CellSelection:
		return selection.CellSelection{Anchor: s.Anchor + delta, Head: s.Head + delta}
	}
	return sel
}

func attrsMatch(n *document.Node, attrs schema.Attrs) bool {
	for k, v := range attrs {
		if n.Attrs[k] != v {
			return false
		}
	}
	return true
}

// BlockActive reports whether selection sits in, or selects, node of type
// carrying attrs.
func BlockActive(st *State, typ string, attrs schema.Attrs) bool {
	if n := selection.NodeOf(st.Selection); n != nil {
		return n.Type == typ && attrsMatch(n, attrs)
	}
	rp, err := document.Resolve(st.Doc, selection.From(st.Selection))
	if err != nil || selection.To(st.Selection) > rp.End(rp.Depth()) {
		return false
	}
	parent := rp.Parent()
	return parent.Type == typ && attrsMatch(parent, attrs)
}

// convertContent fits inline content to textblock type: dropped are nodes
// and marks it does not accept, hard breaks become new lines in code.
func convertContent(s *schema.Schema, def *schema.TypeDefinition, content []*document.Node) []*document.Node {
	res := make([]*document.Node, 0, len(content))
	for _, c := range content {
		if def.Code && c.Type == schema.NodeHardBreak {
			c = document.NewText("\n", c.Marks...)
		}
		if !s.AllowsChild(def.Name, c.Type) {
			continue
		}
		if marks := slices.DeleteFunc(slices.Clone(c.Marks), func(m *document.Mark) bool { return !def.AllowsMark(m.Type) }); len(marks) != len(c.Marks) {
			c = c.WithMarks(marks)
		}
		res = append(res, c)
	}
	return document.JoinText(res)
}

// SetBlockType turns textblocks touched by selection into textblocks of
// type. It applies when at least one of them can change.
func SetBlockType(typ string, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		def, ok := st.Schema.Node(typ)
		if !ok || !def.IsTextblock() {
			return false
		}
		if _, cells := st.Selection.(selection.CellSelection); cells {
			return false
		}
		doc, changed := setBlockType(st.Schema, st.Doc, selection.From(st.Selection), selection.To(st.Selection), def, def.DefaultAttrs(attrs))
		if !changed {
			return false
		}
		if dispatch != nil {
			dispatch(st.Tr().SetDoc(doc))
		}
		return true
	}
}

func setBlockType(s *schema.Schema, doc *document.Node, from, to int, def *schema.TypeDefinition, attrs schema.Attrs) (*document.Node, bool) {
	var visit func(n *document.Node, start int) (*document.Node, bool)
	visit = func(n *document.Node, start int) (*document.Node, bool) {
		content := slices.Clone(n.Content)
		changed := false
		pos := start
		for i, c := range n.Content {
			end := pos + c.Size()
			if end <= from || pos >= to || c.IsText() {
				pos = end
				continue
			}
			cdef, ok := s.Node(c.Type)
			switch {
			case !ok:
			case cdef.IsTextblock():
				if c.Type == def.Name && attrsMatch(c, attrs) {
					break
				}
				next := slices.Clone(types(content))
				next[i] = def.Name
				if !s.ValidContent(n.Type, next) {
					break
				}
				cp := c.WithType(def.Name)
				cp.Attrs = maps.Clone(attrs)
				cp.Content = convertContent(s, def, c.Content)
				content[i], changed = cp, true
			default:
				if mapped, ok := visit(c, pos+1); ok {
					content[i], changed = mapped, true
				}
			}
			pos = end
		}
		if !changed {
			return n, false
		}
		return n.WithContent(content), true
	}
	return visit(doc, 0)
}

// Wrap wraps blocks covered by selection into node of type.
func Wrap(typ string, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		tr := st.Tr()
		if tr.wrap(selection.From(st.Selection), selection.To(st.Selection), typ, attrs) == nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// wrap wraps blocks between from and to and returns path of the wrapper,
// nil when they cannot be wrapped.
func (tr *Transaction) wrap(from, to int, typ string, attrs schema.Attrs) []int {
	s := tr.base.Schema
	def, ok := s.Node(typ)
	if !ok || def.IsLeaf() || def.IsTextblock() {
		return nil
	}
	r := newBlockRange(s, tr.doc, from, to)
	if r == nil || !s.ValidContent(typ, types(r.children())) {
		return nil
	}
	wrapper := document.NewNode(typ, def.DefaultAttrs(attrs), r.children()...)
	content := splice(r.parent().Content, r.start, r.end, wrapper)
	if !s.ValidContent(r.parent().Type, types(content)) {
		return nil
	}
	if err := tr.Replace(r.path(), func(n *document.Node) *document.Node { return n.WithContent(content) }); err != nil {
		return nil
	}
	tr.SetSelection(shift(tr.sel, 1))
	return append(r.path(), r.start)
}

// WrapInList wraps every block covered by selection into its own item of
// a new list of type.
func WrapInList(typ string, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		tr := st.Tr()
		if tr.wrapInList(selection.From(st.Selection), selection.To(st.Selection), typ, attrs) == nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

func (tr *Transaction) wrapInList(from, to int, typ string, attrs schema.Attrs) []int {
	s := tr.base.Schema
	def, ok := s.Node(typ)
	if !ok || !s.HasNode(schema.NodeListItem) {
		return nil
	}
	r := newBlockRange(s, tr.doc, from, to)
	if r == nil {
		return nil
	}
	// blocks already are list item content
	if r.parent().Type == schema.NodeListItem && r.start == 0 && r.depth > 0 &&
		s.AllowsChild(r.from.Node(r.depth-1).Type, schema.NodeListItem) {
		return nil
	}
	items := make([]*document.Node, 0, r.end-r.start)
	for _, c := range r.children() {
		if !s.ValidContent(schema.NodeListItem, []string{c.Type}) {
			return nil
		}
		items = append(items, document.NewNode(schema.NodeListItem, nil, c))
	}
	if !s.ValidContent(typ, types(items)) {
		return nil
	}
	list := document.NewNode(typ, def.DefaultAttrs(attrs), items...)
	content := splice(r.parent().Content, r.start, r.end, list)
	if !s.ValidContent(r.parent().Type, types(content)) {
		return nil
	}
	if err := tr.Replace(r.path(), func(n *document.Node) *document.Node { return n.WithContent(content) }); err != nil {
		return nil
	}
	// list and item open before the first block, every next block gets
	// another item boundary
	delta := func(pos int) int {
		rp, err := document.Resolve(r.from.Node(0), pos)
		if err != nil || rp.Depth() < r.depth {
			return 2
		}
		return 2 + 2*(max(rp.Index(r.depth), r.start)-r.start)
	}
	switch sel := tr.sel.(type) {
	case selection.TextSelection:
		tr.SetSelection(selection.TextSelection{Anchor: sel.Anchor + delta(sel.Anchor), Head: sel.Head + delta(sel.Head)})
	case selection.NodeSelection:
		tr.SetSelection(selection.NodeSelection{Pos: sel.Pos + delta(sel.Pos)})
	}
	return append(r.path(), r.start)
}

// Lift moves blocks covered by selection out of their parent into the
// closest ancestor able to hold them, splitting the nodes in between.
// Isolating nodes such as table cells are never left.
func Lift(st *State, dispatch func(tr *Transaction)) bool {
	s := st.Schema
	r := newBlockRange(s, st.Doc, selection.From(st.Selection), selection.To(st.Selection))
	if r == nil || r.depth == 0 {
		return false
	}
	rp := r.from
	parent := r.parent()
	left := parent.Content[:r.start]
	right := parent.Content[r.end:]
	valid := true
	wrapIf := func(n *document.Node, content []*document.Node) []*document.Node {
		if len(content) == 0 {
			return nil
		}
		valid = valid && s.ValidContent(n.Type, types(content))
		return []*document.Node{n.WithContent(content)}
	}

	for t := r.depth - 1; t >= 0; t-- {
		inner := rp.Node(t + 1)
		if def, ok := s.Node(inner.Type); !ok || def.Isolating {
			return false
		}
		outer := rp.Node(t)
		index := rp.Index(t)
		valid = true
		l, rr := wrapIf(inner, left), wrapIf(inner, right)
		content := slices.Concat(outer.Content[:index], l, r.children(), rr, outer.Content[index+1:])
		if valid && s.ValidContent(outer.Type, types(content)) {
			if dispatch == nil {
				return true
			}
			path := rp.Path()[:t]
			oldPos, err := document.PosOf(st.Doc, append(r.path(), r.start))
			if err != nil {
				return false
			}
			tr := st.Tr()
			if err := tr.Replace(path, func(n *document.Node) *document.Node { return n.WithContent(content) }); err != nil {
				return false
			}
			newPos, err := document.PosOf(tr.Doc(), append(slices.Clone(path), index+len(l)))
			if err != nil {
				return false
			}
			tr.SetSelection(shift(st.Selection, newPos-oldPos))
			dispatch(tr)
			return true
		}
		if !valid {
			return false
		}
		left = slices.Concat(outer.Content[:index], l)
		right = slices.Concat(rr, outer.Content[index+1:])
	}
	return false
}

// joinable reports whether b may be appended to a.
func joinable(s *schema.Schema, a, b *document.Node) bool {
	if a == nil || b == nil || a.Type != b.Type || a.IsText() {
		return false
	}
	def, ok := s.Node(a.Type)
	if !ok || def.IsLeaf() || def.IsTextblock() || def.Isolating {
		return false
	}
	return s.ValidContent(a.Type, types(slices.Concat(a.Content, b.Content)))
}

// JoinUp joins selected block, or the innermost ancestor of selection
// which can be joined, with the sibling before it.
func JoinUp(st *State, dispatch func(tr *Transaction)) bool {
	s := st.Schema
	var path []int
	if ns, ok := st.Selection.(selection.NodeSelection); ok {
		_, p, err := document.NodeAt(st.Doc, ns.Pos)
		if err != nil {
			return false
		}
		path = p
	} else {
		rp, err := document.Resolve(st.Doc, selection.From(st.Selection))
		if err != nil {
			return false
		}
		for d := rp.Depth() - 1; d >= 0; d-- {
			index := rp.Index(d)
			if index > 0 && joinable(s, rp.Node(d).Content[index-1], rp.Node(d).Content[index]) {
				path = rp.Path()[:d+1]
				break
			}
		}
	}
	if len(path) == 0 || path[len(path)-1] == 0 {
		return false
	}
	index := path[len(path)-1]
	parentPath := path[:len(path)-1]
	parent, err := document.At(st.Doc, parentPath)
	if err != nil {
		return false
	}
	before, after := parent.Content[index-1], parent.Content[index]
	if !joinable(s, before, after) {
		return false
	}
	if dispatch == nil {
		return true
	}
	tr := st.Tr()
	joined := before.WithContent(slices.Concat(before.Content, after.Content))
	if err := tr.Replace(parentPath, func(n *document.Node) *document.Node {
		return n.WithContent(splice(n.Content, index-1, index+1, joined))
	}); err != nil {
		return false
	}
	if ns, ok := st.Selection.(selection.NodeSelection); ok {
		tr.SetSelection(selection.NodeSelection{Pos: ns.Pos - before.Size()})
	} else {
		tr.SetSelection(shift(st.Selection, -2))
	}
	dispatch(tr)
	return true
}

// SelectParentNode selects the innermost node containing whole selection.
func SelectParentNode(st *State, dispatch func(tr *Transaction)) bool {
	from, err := document.Resolve(st.Doc, selection.From(st.Selection))
	if err != nil {
		return false
	}
	to, err := document.Resolve(st.Doc, selection.To(st.Selection))
	if err != nil {
		return false
	}
	depth := from.SharedDepth(to)
	if depth == 0 {
		return false
	}
	sel, err := selection.SelectNode(st.Doc, from.Before(depth))
	if err != nil {
		return false
	}
	if dispatch != nil {
		dispatch(st.Tr().SetSelection(sel))
	}
	return true
}

// InsertNode replaces text selection with a new node of type. Inline nodes
// go into the textblock, block nodes split it and cursor lands in the
// textblock part after the node.
func InsertNode(typ string, attrs schema.Attrs) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		def, ok := st.Schema.Node(typ)
		if !ok {
			return false
		}
		full := def.DefaultAttrs(attrs)
		for name, spec := range def.Attrs {
			if _, ok := full[name]; spec.Required && !ok {
				return false
			}
		}
		var content []*document.Node
		if !def.IsLeaf() {
			content = fill(st.Schema, typ)
			if content == nil {
				return false
			}
		}
		return insertNode(st, dispatch, document.NewNode(typ, full, content...), 0)
	}
}

// InsertTable inserts table of rows by cols empty cells with header cells
// in the first row. Cursor lands in the first cell.
func InsertTable(rows, cols int) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		s := st.Schema
		if rows < 1 || cols < 1 {
			return false
		}
		for _, name := range []string{schema.NodeTable, schema.NodeTableRow, schema.NodeTableCell, schema.NodeTableHeader, schema.NodeParagraph} {
			if !s.HasNode(name) {
				return false
			}
		}
		trs := make([]*document.Node, rows)
		for r := range trs {
			typ := schema.NodeTableCell
			if r == 0 {
				typ = schema.NodeTableHeader
			}
			cells := make([]*document.Node, cols)
			for c := range cells {
				cells[c] = newCell(typ)
			}
			trs[r] = document.NewNode(schema.NodeTableRow, nil, cells...)
		}
		// table, row, cell and paragraph open before the cursor
		return insertNode(st, dispatch, document.NewNode(schema.NodeTable, nil, trs...), 4)
	}
}

// fill returns the smallest content valid for type, built of empty
// paragraphs, nil when there is none.
func fill(s *schema.Schema, typ string) []*document.Node {
	if s.ValidContent(typ, nil) {
		return []*document.Node{}
	}
	if s.ValidContent(typ, []string{schema.NodeParagraph}) {
		return []*document.Node{document.NewNode(schema.NodeParagraph, nil)}
	}
	return nil
}

// insertNode puts node in place of text selection. Offset is distance from
// the start of a block node to the new cursor, zero places cursor in the
// textblock after it.
func insertNode(st *State, dispatch func(tr *Transaction), node *document.Node, offset int) bool {
	s := st.Schema
	sel, ok := st.Selection.(selection.TextSelection)
	if !ok {
		return false
	}
	from, to := selection.From(sel), selection.To(sel)
	rpFrom, err := document.Resolve(st.Doc, from)
	if err != nil {
		return false
	}
	rpTo, err := document.Resolve(st.Doc, to)
	if err != nil || rpFrom.Depth() == 0 || rpFrom.SharedDepth(rpTo) != rpFrom.Depth() {
		return false
	}
	tb := rpFrom.Parent()
	tbDef, ok := s.Node(tb.Type)
	if !ok || !tbDef.IsTextblock() {
		return false
	}
	def, _ := s.Node(node.Type)
	fromOff, toOff := rpFrom.ParentOffset, rpTo.ParentOffset
	tr := st.Tr()

	if def.Inline {
		if !s.AllowsChild(tb.Type, node.Type) {
			return false
		}
		marks := slices.DeleteFunc(slices.Clone(st.cursorMarks(from)), func(m *document.Mark) bool { return !tbDef.AllowsMark(m.Type) })
		node = node.WithMarks(marks)
		if dispatch == nil {
			return true
		}
		if err := tr.Replace(rpFrom.Path(), func(n *document.Node) *document.Node {
			return document.ReplaceInline(n, fromOff, toOff, node)
		}); err != nil {
			return false
		}
		dispatch(tr.SetSelection(selection.Cursor(from + 1)))
		return true
	}

	depth := rpFrom.Depth() - 1
	container := rpFrom.Node(depth)
	index := rpFrom.Index(depth)
	head := document.ReplaceInline(tb, fromOff, tb.ContentSize())
	tail := document.ReplaceInline(tb, 0, toOff)
	var pieces []*document.Node
	for _, keepHead := range []bool{len(head.Content) > 0, true} {
		pieces = []*document.Node{node, tail}
		if keepHead {
			pieces = []*document.Node{head, node, tail}
		}
		if s.ValidContent(container.Type, types(splice(container.Content, index, index+1, pieces...))) {
			break
		}
		pieces = nil
	}
	if pieces == nil {
		return false
	}
	if dispatch == nil {
		return true
	}
	if err := tr.Replace(rpFrom.Path()[:depth], func(n *document.Node) *document.Node {
		return n.WithContent(splice(n.Content, index, index+1, pieces...))
	}); err != nil {
		return false
	}
	pos := rpFrom.Before(rpFrom.Depth())
	if len(pieces) == 3 {
		pos += head.Size()
	}
	if offset <= 0 {
		offset = node.Size() + 1
	}
	dispatch(tr.SetSelection(selection.Cursor(pos + offset)))
	return true
}
