package editor

import (
	"testing"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"Mod-b", "Ctrl-b"},
		{"Shift-Mod-z", "Ctrl-Shift-z"},
		{"Mod-Shift-z", "Ctrl-Shift-z"},
		{"Cmd-Alt-a", "Alt-Meta-a"},
		{"Ctrl--", "Ctrl--"},
		{"-", "-"},
		{"Space", " "},
		{"Shift-Ctrl-\\", "Ctrl-Shift-\\"},
		{"Escape", "Escape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.name)
			if err != nil {
				t.Fatalf("NormalizeKey failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := NormalizeKey("Hyper-x"); err == nil {
		t.Errorf("expected error for unknown modifier")
	}
	if _, err := Keymap(map[string]Command{"Hyper-x": Always}); err == nil {
		t.Errorf("expected Keymap to reject unknown modifier")
	}
}

func keyView(t *testing.T, d *document.Node, sel selection.Selection) *View {
	t.Helper()
	st := mustState(t, d, sel)
	km, err := Keymap(DefaultKeys(st.Schema))
	if err != nil {
		t.Fatalf("Keymap failed: %v", err)
	}
	v := NewView(st, testLogger(t), km)
	t.Cleanup(v.Destroy)
	return v
}

func TestKeymap(t *testing.T) {
	img := document.NewNode(schema.NodeImage, schema.Attrs{"src": "a.png"})
	tests := []struct {
		name string
		doc  *document.Node
		sel  selection.Selection
		key  string
		want *document.Node
	}{
		{"strong", doc(p("ab")), selection.TextSelection{Anchor: 1, Head: 3}, "Mod-b", doc(para(text("ab", strong)))},
		{"strong with ctrl", doc(p("ab")), selection.TextSelection{Anchor: 1, Head: 3}, "Ctrl-b", doc(para(text("ab", strong)))},
		{"heading", doc(p("ab")), selection.Cursor(1), "Shift-Ctrl-3",
			doc(document.NewNode(schema.NodeHeading, schema.Attrs{"level": 3.0}, text("ab")))},
		{"code block", doc(p("ab")), selection.Cursor(1), "Shift-Ctrl-\\", doc(node(schema.NodeCodeBlock, text("ab")))},
		{"bullet list", doc(p("ab")), selection.Cursor(1), "Shift-Ctrl-8", doc(ul(li(p("ab"))))},
		{"shifted blockquote", doc(p("ab")), selection.Cursor(1), "Shift-Ctrl->", doc(node(schema.NodeBlockquote, p("ab")))},
		{"lift", doc(ul(li(p("ab")))), selection.Cursor(3), "Mod-[", doc(p("ab"))},
		{"hard break", doc(p("ab")), selection.Cursor(2), "Shift-Enter",
			doc(para(text("a"), node(schema.NodeHardBreak), text("b")))},
		{"horizontal rule", doc(p("ab")), selection.Cursor(3), "Mod-_", doc(p("ab"), node(schema.NodeHorizontalRule), p(""))},
		{"delete image", doc(para(text("a"), img)), selection.NodeSelection{Pos: 2}, "Backspace", doc(p("a"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := keyView(t, tt.doc, tt.sel)
			if !v.KeyDown(tt.key) {
				t.Fatalf("key %q was not handled", tt.key)
			}
			expectDoc(t, v.State().Doc, tt.want)
		})
	}
}

func TestKeymap_Unhandled(t *testing.T) {
	v := keyView(t, doc(p("ab")), selection.Cursor(1))
	for _, key := range []string{"Mod-q", "Hyper-b", "Mod-Enter-x"} {
		if v.KeyDown(key) {
			t.Errorf("expected %q unhandled", key)
		}
	}
	// Escape selects parent node inside a list
	v = keyView(t, doc(ul(li(p("ab")))), selection.Cursor(3))
	if !v.KeyDown("Escape") {
		t.Fatalf("expected Escape handled")
	}
	expectSel(t, v.State(), selection.NodeSelection{Pos: 2})
}
