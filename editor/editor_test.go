package editor

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg := schema.DefaultRegistry()
	s, err := schema.NewBuilder(reg, testLogger(t)).Build(schema.Config{
		AllowedNodes: reg.NodeNames(),
		AllowedMarks: reg.MarkNames(),
	}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func doc(content ...*document.Node) *document.Node {
	return document.NewNode(schema.NodeDoc, nil, content...)
}

func p(text string) *document.Node {
	if text == "" {
		return document.NewNode(schema.NodeParagraph, nil)
	}
	return document.NewNode(schema.NodeParagraph, nil, document.NewText(text))
}

func mustState(t *testing.T, d *document.Node, sel selection.Selection) *State {
	t.Helper()
	st, err := NewState(testSchema(t), d, sel)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	return st
}

func TestNewState(t *testing.T) {
	s := testSchema(t)

	st, err := NewState(s, nil, nil)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	if st.Doc.ChildCount() != 1 || st.Doc.Child(0).Type != schema.NodeParagraph {
		t.Errorf("expected single empty paragraph, got %v", st.Doc.ChildTypes())
	}
	if !st.Selection.Equal(selection.Cursor(1)) {
		t.Errorf("expected cursor at 1, got %#v", st.Selection)
	}

	// cursor lands in the first textblock even behind leaf blocks
	st, err = NewState(s, doc(document.NewNode(schema.NodeHorizontalRule, nil), p("x")), nil)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	if !st.Selection.Equal(selection.Cursor(2)) {
		t.Errorf("expected cursor at 2, got %#v", st.Selection)
	}

	if _, err := NewState(s, doc(document.NewText("loose")), nil); err == nil {
		t.Errorf("expected validation error for text in doc")
	}
	if _, err := NewState(s, doc(p("x")), selection.Cursor(10)); err == nil {
		t.Errorf("expected error for selection outside document")
	}
}

func TestApply(t *testing.T) {
	st := mustState(t, doc(p("hello")), selection.Cursor(6))

	tr := st.Tr()
	if err := tr.Replace([]int{0}, func(*document.Node) *document.Node { return p("hi") }); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if !tr.DocChanged() {
		t.Fatalf("expected transaction to change document")
	}
	next, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if next.Doc.TextContent() != "hi" || st.Doc.TextContent() != "hello" {
		t.Errorf("unexpected documents: %q, %q", next.Doc.TextContent(), st.Doc.TextContent())
	}
	if !next.Selection.Equal(selection.Cursor(1)) {
		t.Errorf("expected selection moved to 1, got %#v", next.Selection)
	}

	if _, err := next.Apply(tr); err == nil {
		t.Errorf("expected error for transaction of another state")
	}

	same, err := st.Apply(st.Tr())
	if err != nil || same != st {
		t.Errorf("expected empty transaction to keep state, got %v, %v", same, err)
	}

	if _, err := st.Apply(st.Tr().SetSelection(selection.Cursor(42))); err == nil {
		t.Errorf("expected error for explicit invalid selection")
	}

	tr = st.Tr()
	if err := tr.Replace(nil, func(*document.Node) *document.Node { return nil }); err == nil {
		t.Errorf("expected error removing root")
	}
	tr = st.Tr()
	if err := tr.Replace([]int{0}, func(*document.Node) *document.Node { return document.NewText("bad") }); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, err := st.Apply(tr); err == nil {
		t.Errorf("expected validation error")
	}
}

func TestCommands(t *testing.T) {
	img := document.NewNode(schema.NodeImage, schema.Attrs{"src": "a.png"})
	st := mustState(t, doc(document.NewNode(schema.NodeParagraph, nil, img)), nil)

	if SetSelectedNodeAttrs(schema.Attrs{"alt": "x"})(st, nil) {
		t.Errorf("expected command disabled without node selection")
	}
	if !SelectNodeAt(1)(st, nil) || !SelectNodeAt(0)(st, nil) {
		t.Errorf("expected node selection available")
	}
	if SelectNodeAt(9)(st, nil) {
		t.Errorf("expected node selection outside document to fail")
	}

	var got *Transaction
	SelectNodeAt(1)(st, func(tr *Transaction) { got = tr })
	if got == nil {
		t.Fatalf("expected transaction dispatched")
	}
	st, err := st.Apply(got)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if selection.NodeOf(st.Selection) != img {
		t.Fatalf("expected image selected, got %#v", st.Selection)
	}

	SetSelectedNodeAttrs(schema.Attrs{"alt": "cat", "src": "b.png"})(st, func(tr *Transaction) { got = tr })
	st, err = st.Apply(got)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	changed := selection.NodeOf(st.Selection)
	if changed == img || changed.Attr("src") != "b.png" || changed.Attr("alt") != "cat" {
		t.Errorf("unexpected image after update: %#v", changed)
	}
	if img.Attr("src") != "a.png" {
		t.Errorf("original image was modified")
	}

	if !SetCursor(2)(st, nil) || SetCursor(-1)(st, nil) {
		t.Errorf("unexpected SetCursor availability")
	}
	if !Always(st, nil) {
		t.Errorf("expected Always to be enabled")
	}
}

type recorder struct {
	updates   []*State
	focus     []bool
	destroyed int
}

func (r *recorder) plugin(v *View) PluginView {
	return r
}

func (r *recorder) Update(v *View, prev *State) {
	r.updates = append(r.updates, prev)
	r.focus = append(r.focus, v.Focused())
}

func (r *recorder) Destroy() {
	r.destroyed++
}

func TestView(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	st := mustState(t, doc(p("hello")), nil)
	rec := &recorder{}
	v := NewView(st, zap.New(core), rec.plugin)

	if len(rec.updates) != 1 || rec.updates[0] != nil {
		t.Fatalf("expected initial update with nil prev, got %v", rec.updates)
	}

	out, err := v.HTML()
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(out, `<div class="ProseMirror" contenteditable="true"><p>hello</p></div>`) {
		t.Errorf("unexpected DOM: %s", out)
	}

	v.Focus()
	v.Focus()
	if len(rec.updates) != 2 || rec.updates[1] != st || !rec.focus[1] {
		t.Errorf("expected single focus update, got %d updates", len(rec.updates))
	}

	tr := v.State().Tr()
	if err := tr.Replace([]int{0}, func(*document.Node) *document.Node { return p("bye") }); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	v.Dispatch(tr)
	if v.State() == st || len(rec.updates) != 3 || rec.updates[2] != st {
		t.Errorf("expected update after dispatch")
	}
	out, _ = v.HTML()
	if !strings.Contains(out, "<p>bye</p>") {
		t.Errorf("expected re-rendered document, got %s", out)
	}

	// transaction started from stale state is dropped
	v.Dispatch(st.Tr().SetSelection(selection.Cursor(2)))
	if len(rec.updates) != 3 {
		t.Errorf("expected no update for rejected transaction")
	}
	if logs.FilterMessage("Transaction rejected").Len() != 1 {
		t.Errorf("expected rejected transaction to be logged")
	}

	v.Blur()
	if len(rec.updates) != 4 || rec.focus[3] {
		t.Errorf("expected blur update")
	}

	v.Destroy()
	v.Destroy()
	if rec.destroyed != 1 || !v.Destroyed() {
		t.Errorf("expected plugin destroyed once, got %d", rec.destroyed)
	}
	v.Focus()
	if len(rec.updates) != 4 {
		t.Errorf("expected no updates after destroy")
	}
}
