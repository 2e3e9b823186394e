package editor

import (
	"encoding/json"
	"slices"
	"testing"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

var (
	strong = &document.Mark{Type: schema.MarkStrong}
	link   = &document.Mark{Type: schema.MarkLink, Attrs: schema.Attrs{"href": "/x"}}
)

func text(s string, marks ...*document.Mark) *document.Node {
	return document.NewText(s, marks...)
}

func para(content ...*document.Node) *document.Node {
	return document.NewNode(schema.NodeParagraph, nil, content...)
}

func node(typ string, content ...*document.Node) *document.Node {
	return document.NewNode(typ, nil, content...)
}

func li(content ...*document.Node) *document.Node { return node(schema.NodeListItem, content...) }
func ul(items ...*document.Node) *document.Node   { return node(schema.NodeBulletList, items...) }

func dump(n *document.Node) string {
	out, _ := json.Marshal(n)
	return string(out)
}

func expectDoc(t *testing.T, got, want *document.Node) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("unexpected document\n got: %s\nwant: %s", dump(got), dump(want))
	}
}

func expectSel(t *testing.T, st *State, want selection.Selection) {
	t.Helper()
	if !st.Selection.Equal(want) {
		t.Errorf("got selection %#v, want %#v", st.Selection, want)
	}
}

func TestToggleMark(t *testing.T) {
	tests := []struct {
		name string
		doc  *document.Node
		sel  selection.Selection
		want *document.Node
	}{
		{"whole text", doc(p("hello")), selection.TextSelection{Anchor: 1, Head: 6}, doc(para(text("hello", strong)))},
		{"part of text", doc(p("hello")), selection.TextSelection{Anchor: 2, Head: 4},
			doc(para(text("h"), text("el", strong), text("lo")))},
		{"removes when any text has it", doc(para(text("he", strong), text("llo"))), selection.TextSelection{Anchor: 1, Head: 6},
			doc(p("hello"))},
		{"across blocks", doc(p("ab"), p("cd")), selection.TextSelection{Anchor: 2, Head: 6},
			doc(para(text("a"), text("b", strong)), para(text("c", strong), text("d")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := run(t, ToggleMark(schema.MarkStrong, nil), mustState(t, tt.doc, tt.sel))
			expectDoc(t, next.Doc, tt.want)
		})
	}
}

func TestToggleMark_Cursor(t *testing.T) {
	st := mustState(t, doc(p("hi")), selection.Cursor(2))
	if MarkActive(st, schema.MarkStrong) {
		t.Fatalf("expected strong inactive")
	}
	st = run(t, ToggleMark(schema.MarkStrong, nil), st)
	if !MarkActive(st, schema.MarkStrong) || len(st.StoredMarks) != 1 {
		t.Fatalf("expected strong stored, got %v", st.StoredMarks)
	}
	st = run(t, InsertText("x"), st)
	expectDoc(t, st.Doc, doc(para(text("h"), text("x", strong), text("i"))))
	expectSel(t, st, selection.Cursor(3))
	if st.StoredMarks != nil {
		t.Errorf("expected stored marks cleared by typing")
	}
	if !MarkActive(st, schema.MarkStrong) {
		t.Errorf("expected strong active after strong text")
	}

	// toggling off at the end of strong text stores an empty set
	st = run(t, ToggleMark(schema.MarkStrong, nil), st)
	if st.StoredMarks == nil || len(st.StoredMarks) != 0 || MarkActive(st, schema.MarkStrong) {
		t.Errorf("expected empty stored marks, got %v", st.StoredMarks)
	}
}

func TestToggleMark_Unavailable(t *testing.T) {
	code := doc(node(schema.NodeCodeBlock, text("x")))
	tests := []struct {
		name string
		st   *State
		mark string
	}{
		{"code block cursor", mustState(t, code, selection.Cursor(1)), schema.MarkStrong},
		{"code block range", mustState(t, code, selection.TextSelection{Anchor: 1, Head: 2}), schema.MarkStrong},
		{"unknown mark", mustState(t, doc(p("x")), selection.Cursor(1)), "glow"},
		{"cell selection", mustState(t, plainTable(), selection.CellSelection{Anchor: 2, Head: 7}), schema.MarkStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ToggleMark(tt.mark, nil)(tt.st, nil) {
				t.Errorf("expected command unavailable")
			}
		})
	}
}

func TestInsertText(t *testing.T) {
	// link is not inclusive, text typed after it stays plain
	st := run(t, InsertText("c"), mustState(t, doc(para(text("ab", link))), selection.Cursor(3)))
	expectDoc(t, st.Doc, doc(para(text("ab", link), text("c"))))

	// strong is inclusive
	st = run(t, InsertText("c"), mustState(t, doc(para(text("ab", strong))), selection.Cursor(3)))
	expectDoc(t, st.Doc, doc(para(text("abc", strong))))

	// replaces selected text
	st = run(t, InsertText("X"), mustState(t, doc(p("abcd")), selection.TextSelection{Anchor: 2, Head: 4}))
	expectDoc(t, st.Doc, doc(p("aXd")))
	expectSel(t, st, selection.Cursor(3))

	// astral characters take two positions
	st = run(t, InsertText("😀"), mustState(t, doc(p("")), selection.Cursor(1)))
	expectSel(t, st, selection.Cursor(3))

	if InsertText("x")(mustState(t, doc(p("a"), p("b")), selection.TextSelection{Anchor: 1, Head: 4}), nil) {
		t.Errorf("expected text insertion across blocks unavailable")
	}
}

func TestSetBlockType(t *testing.T) {
	h2 := schema.Attrs{"level": 2.0}
	st := mustState(t, doc(p("hi")), selection.Cursor(1))
	if BlockActive(st, schema.NodeHeading, nil) || !BlockActive(st, schema.NodeParagraph, nil) {
		t.Fatalf("expected paragraph active")
	}
	st = run(t, SetBlockType(schema.NodeHeading, h2), st)
	expectDoc(t, st.Doc, doc(document.NewNode(schema.NodeHeading, h2, text("hi"))))
	if !BlockActive(st, schema.NodeHeading, h2) || BlockActive(st, schema.NodeHeading, schema.Attrs{"level": 1.0}) {
		t.Errorf("expected heading 2 active only")
	}
	if SetBlockType(schema.NodeHeading, h2)(st, nil) {
		t.Errorf("expected no change for the same type")
	}

	// code drops marks and turns breaks into new lines
	br := node(schema.NodeHardBreak)
	st = run(t, SetBlockType(schema.NodeCodeBlock, nil), mustState(t, doc(para(text("a", strong), br, text("b"))), selection.Cursor(1)))
	expectDoc(t, st.Doc, doc(node(schema.NodeCodeBlock, text("a\nb"))))

	// every textblock touched by selection changes
	st = run(t, SetBlockType(schema.NodeCodeBlock, nil), mustState(t, doc(p("a"), p("b"), p("c")), selection.TextSelection{Anchor: 1, Head: 4}))
	expectDoc(t, st.Doc, doc(node(schema.NodeCodeBlock, text("a")), node(schema.NodeCodeBlock, text("b")), p("c")))

	if SetBlockType(schema.NodeBlockquote, nil)(mustState(t, doc(p("x")), nil), nil) {
		t.Errorf("expected non textblock type unavailable")
	}
}

func TestWrap(t *testing.T) {
	st := run(t, Wrap(schema.NodeBlockquote, nil), mustState(t, doc(p("a"), p("b")), selection.TextSelection{Anchor: 1, Head: 4}))
	expectDoc(t, st.Doc, doc(node(schema.NodeBlockquote, p("a"), p("b"))))
	expectSel(t, st, selection.TextSelection{Anchor: 2, Head: 5})

	if Wrap(schema.NodeParagraph, nil)(mustState(t, doc(p("a")), nil), nil) {
		t.Errorf("expected textblock wrapper unavailable")
	}
}

func TestWrapInList(t *testing.T) {
	st := run(t, WrapInList(schema.NodeBulletList, nil), mustState(t, doc(p("a"), p("b")), selection.TextSelection{Anchor: 1, Head: 4}))
	expectDoc(t, st.Doc, doc(ul(li(p("a")), li(p("b")))))
	expectSel(t, st, selection.TextSelection{Anchor: 3, Head: 8})

	st = run(t, WrapInList(schema.NodeOrderedList, nil), mustState(t, doc(p("a")), selection.Cursor(1)))
	expectDoc(t, st.Doc, doc(document.NewNode(schema.NodeOrderedList, schema.Attrs{"order": 1.0}, li(p("a")))))

	if WrapInList(schema.NodeBulletList, nil)(mustState(t, doc(ul(li(p("a")))), selection.Cursor(3)), nil) {
		t.Errorf("expected list item content not to be wrapped again")
	}
	heading := document.NewNode(schema.NodeHeading, schema.Attrs{"level": 1.0}, text("h"))
	if WrapInList(schema.NodeBulletList, nil)(mustState(t, doc(heading), selection.Cursor(1)), nil) {
		t.Errorf("expected heading unavailable as list item")
	}
}

func TestLift(t *testing.T) {
	tests := []struct {
		name string
		doc  *document.Node
		sel  selection.Selection
		want *document.Node
		cur  int
	}{
		{"single item", doc(ul(li(p("a")))), selection.Cursor(3), doc(p("a")), 1},
		{"middle item", doc(ul(li(p("a")), li(p("b")), li(p("c")))), selection.Cursor(8),
			doc(ul(li(p("a"))), p("b"), ul(li(p("c")))), 8},
		{"blockquote", doc(node(schema.NodeBlockquote, p("a"), p("b"))), selection.Cursor(5),
			doc(node(schema.NodeBlockquote, p("a")), p("b")), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := run(t, Lift, mustState(t, tt.doc, tt.sel))
			expectDoc(t, st.Doc, tt.want)
			expectSel(t, st, selection.Cursor(tt.cur))
		})
	}

	if Lift(mustState(t, doc(p("a")), nil), nil) {
		t.Errorf("expected top level paragraph not liftable")
	}
	if Lift(mustState(t, plainTable(), selection.Cursor(4)), nil) {
		t.Errorf("expected cell content not liftable")
	}
}

func TestJoinUp(t *testing.T) {
	st := run(t, JoinUp, mustState(t, doc(ul(li(p("a"))), ul(li(p("b")))), selection.Cursor(10)))
	expectDoc(t, st.Doc, doc(ul(li(p("a")), li(p("b")))))
	expectSel(t, st, selection.Cursor(8))

	st = run(t, JoinUp, mustState(t, doc(ul(li(p("a"))), ul(li(p("b")))), selection.NodeSelection{Pos: 7}))
	expectSel(t, st, selection.NodeSelection{Pos: 0})

	if JoinUp(mustState(t, doc(p("a"), p("b")), selection.Cursor(4)), nil) {
		t.Errorf("expected textblocks not joinable")
	}
	if JoinUp(mustState(t, doc(p("a"), ul(li(p("b")))), selection.Cursor(6)), nil) {
		t.Errorf("expected nodes of different type not joinable")
	}
}

func TestSelectParentNode(t *testing.T) {
	st := mustState(t, doc(ul(li(p("a")))), selection.Cursor(3))
	for _, want := range []int{2, 1, 0} {
		st = run(t, SelectParentNode, st)
		expectSel(t, st, selection.NodeSelection{Pos: want})
	}
	if SelectParentNode(st, nil) {
		t.Errorf("expected top level node to have no parent to select")
	}
}

func TestInsertNode(t *testing.T) {
	hr := node(schema.NodeHorizontalRule)
	tests := []struct {
		name string
		doc  *document.Node
		pos  int
		want *document.Node
		cur  int
	}{
		{"splits paragraph", doc(p("ab")), 2, doc(p("a"), hr, p("b")), 5},
		{"start of paragraph", doc(p("ab")), 1, doc(hr, p("ab")), 2},
		{"end of paragraph", doc(p("ab")), 3, doc(p("ab"), hr, p("")), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := run(t, InsertNode(schema.NodeHorizontalRule, nil), mustState(t, tt.doc, selection.Cursor(tt.pos)))
			expectDoc(t, st.Doc, tt.want)
			expectSel(t, st, selection.Cursor(tt.cur))
		})
	}

	st := run(t, InsertNode(schema.NodeImage, schema.Attrs{"src": "a.png"}), mustState(t, doc(p("ab")), selection.Cursor(2)))
	if got := st.Doc.Child(0).ChildTypes(); !slices.Equal(got, []string{schema.NodeText, schema.NodeImage, schema.NodeText}) {
		t.Errorf("unexpected paragraph content %v", got)
	}
	expectSel(t, st, selection.Cursor(3))

	if InsertNode(schema.NodeImage, nil)(mustState(t, doc(p("ab")), nil), nil) {
		t.Errorf("expected image without src unavailable")
	}
	if InsertNode(schema.NodeHardBreak, nil)(mustState(t, doc(node(schema.NodeCodeBlock)), selection.Cursor(1)), nil) {
		t.Errorf("expected break unavailable in code")
	}
}

func TestInsertTable(t *testing.T) {
	st := run(t, InsertTable(2, 3), mustState(t, doc(p("")), selection.Cursor(1)))
	if got := grid(t, st.Doc); got != "*_ *_ *_ / _ _ _" {
		t.Errorf("got %q", got)
	}
	if st.Doc.ChildCount() != 2 {
		t.Errorf("expected paragraph after table, got %v", st.Doc.ChildTypes())
	}
	expectSel(t, st, selection.Cursor(4))

	if InsertTable(0, 2)(mustState(t, doc(p("")), nil), nil) {
		t.Errorf("expected empty table unavailable")
	}
}

func TestDeleteSelectedNode(t *testing.T) {
	img := document.NewNode(schema.NodeImage, schema.Attrs{"src": "a.png"})
	st := run(t, DeleteSelectedNode(schema.NodeImage), mustState(t, doc(para(text("a"), img)), selection.NodeSelection{Pos: 2}))
	expectDoc(t, st.Doc, doc(p("a")))
	expectSel(t, st, selection.Cursor(2))

	hr := node(schema.NodeHorizontalRule)
	if DeleteSelectedNode(schema.NodeImage)(mustState(t, doc(hr, p("")), selection.NodeSelection{Pos: 0}), nil) {
		t.Errorf("expected only images removed")
	}
	if DeleteSelectedNode(schema.NodeHorizontalRule)(mustState(t, doc(hr), selection.NodeSelection{Pos: 0}), nil) {
		t.Errorf("expected document not left empty")
	}
}
