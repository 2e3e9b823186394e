package document

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"prosekit/schema"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

// fullSchema allows every registry type.
func fullSchema(t *testing.T, classes map[string]string) *schema.Schema {
	t.Helper()
	reg := schema.DefaultRegistry()
	s, err := schema.NewBuilder(reg, testLogger(t)).Build(schema.Config{
		AllowedNodes: reg.NodeNames(),
		AllowedMarks: reg.MarkNames(),
		ClassNames:   classes,
	}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func p(content ...*Node) *Node {
	return NewNode(schema.NodeParagraph, nil, content...)
}

func TestParse_Shape(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"array", `[]`},
		{"string", `"doc"`},
		{"empty object", `{}`},
		{"no type", `{"content":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.in))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
		})
	}

	if _, err := ParseBytes([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}

func TestParse_Document(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{"type":"doc","content":[
		{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title"}]},
		{"type":"paragraph","content":[{"type":"text","text":"bold","marks":[{"type":"strong"}]}]}
	]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.ChildCount() != 2 {
		t.Fatalf("expected 2 children, got %d", doc.ChildCount())
	}
	if level := doc.Child(0).Attr("level"); level != 2.0 {
		t.Errorf("expected level 2, got %v (%T)", level, level)
	}
	if !doc.Child(1).Child(0).HasMark(schema.MarkStrong) {
		t.Errorf("expected strong mark")
	}
	if got := doc.TextContent(); got != "Titlebold" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestMarshal_EmptyDoc(t *testing.T) {
	data, err := json.Marshal(EmptyDoc())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != EmptyDocJSON {
		t.Errorf("got %s, want %s", data, EmptyDocJSON)
	}

	doc, err := ParseBytes([]byte(EmptyDocJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Type != schema.NodeDoc || doc.ChildCount() != 0 {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestNode_Size(t *testing.T) {
	img := NewNode(schema.NodeImage, schema.Attrs{"src": "a.png"})
	doc := NewNode(schema.NodeDoc, nil,
		p(NewText("héllo")),
		p(img, NewText("x")),
		NewNode(schema.NodeHorizontalRule, nil),
		p(),
	)
	tests := []struct {
		name string
		n    *Node
		want int
	}{
		{"text counts characters", doc.Child(0).Child(0), 5},
		{"paragraph", doc.Child(0), 7},
		{"inline leaf", img, 1},
		{"block leaf", doc.Child(2), 1},
		{"empty paragraph", doc.Child(3), 2},
		{"astral characters count twice", NewText("a😀b"), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
	if got := doc.ContentSize(); got != 7+4+1+2 {
		t.Errorf("ContentSize() = %d", got)
	}
}

func TestNode_CustomLeafSize(t *testing.T) {
	if _, err := schema.NewRegistry(
		schema.TypeDefinition{Kind: schema.KindNode, Name: "mention", Group: schema.GroupInline, Inline: true, Atom: true},
	); err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	para := p(NewText("hi "), NewNode("mention", schema.Attrs{"id": "u1"}))
	if got := para.Size(); got != 3+1+2 {
		t.Errorf("Size() = %d, want 6", got)
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		offset      int
		left, right string
	}{
		{0, "", "a😀b"},
		{1, "a", "😀b"},
		{2, "a😀", "b"},
		{3, "a😀", "b"},
		{4, "a😀b", ""},
		{9, "a😀b", ""},
	}
	for _, tt := range tests {
		left, right := SplitText("a😀b", tt.offset)
		if left != tt.left || right != tt.right {
			t.Errorf("SplitText(%d) = %q, %q, want %q, %q", tt.offset, left, right, tt.left, tt.right)
		}
	}
}

func TestNode_CopiesKeepOriginal(t *testing.T) {
	orig := NewNode(schema.NodeTableCell, schema.Attrs{"colspan": 1.0}, p())
	changed := orig.WithAttrs(schema.Attrs{"colspan": 2.0}).WithType(schema.NodeTableHeader)

	if orig.Attr("colspan") != 1.0 || orig.Type != schema.NodeTableCell {
		t.Errorf("original modified: %+v", orig)
	}
	if changed.Attr("colspan") != 2.0 || changed.Type != schema.NodeTableHeader {
		t.Errorf("unexpected copy: %+v", changed)
	}
	if changed.Child(0) != orig.Child(0) {
		t.Errorf("content must be shared")
	}
	if orig.Equal(changed) {
		t.Errorf("nodes must differ")
	}
	if !orig.Equal(NewNode(schema.NodeTableCell, schema.Attrs{"colspan": 1.0}, p())) {
		t.Errorf("structurally equal nodes must compare equal")
	}
}
