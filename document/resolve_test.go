package document

import (
	"slices"
	"testing"

	"prosekit/schema"
)

func TestResolve(t *testing.T) {
	// <p>ab</p><p>cd</p>
	doc := NewNode(schema.NodeDoc, nil, p(NewText("ab")), p(NewText("cd")))

	tests := []struct {
		pos          int
		depth        int
		parent       *Node
		parentOffset int
		index        int
	}{
		{0, 0, doc, 0, 0},
		{1, 1, doc.Child(0), 0, 0},
		{2, 1, doc.Child(0), 1, 0},
		{3, 1, doc.Child(0), 2, 1},
		{4, 0, doc, 4, 1},
		{5, 1, doc.Child(1), 0, 0},
		{8, 0, doc, 8, 2},
	}
	for _, tt := range tests {
		rp, err := Resolve(doc, tt.pos)
		if err != nil {
			t.Fatalf("Resolve(%d) failed: %v", tt.pos, err)
		}
		if rp.Depth() != tt.depth {
			t.Errorf("Resolve(%d).Depth() = %d, want %d", tt.pos, rp.Depth(), tt.depth)
		}
		if rp.Parent() != tt.parent {
			t.Errorf("Resolve(%d).Parent() = %v", tt.pos, rp.Parent().Type)
		}
		if rp.ParentOffset != tt.parentOffset {
			t.Errorf("Resolve(%d).ParentOffset = %d, want %d", tt.pos, rp.ParentOffset, tt.parentOffset)
		}
		if got := rp.Index(rp.Depth()); got != tt.index {
			t.Errorf("Resolve(%d).Index = %d, want %d", tt.pos, got, tt.index)
		}
	}

	rp, _ := Resolve(doc, 6)
	if rp.Start(1) != 5 || rp.Before(1) != 4 {
		t.Errorf("Start/Before = %d/%d, want 5/4", rp.Start(1), rp.Before(1))
	}
	if d := rp.Find(func(n *Node) bool { return n.Type == schema.NodeParagraph }); d != 1 {
		t.Errorf("Find = %d, want 1", d)
	}
	if d := rp.Find(func(n *Node) bool { return n.Type == schema.NodeTable }); d != -1 {
		t.Errorf("Find = %d, want -1", d)
	}

	for _, pos := range []int{-1, 9} {
		if _, err := Resolve(doc, pos); err == nil {
			t.Errorf("Resolve(%d) must fail", pos)
		}
	}
}

func TestResolve_EmptyParagraph(t *testing.T) {
	doc := NewNode(schema.NodeDoc, nil, p())
	rp, err := Resolve(doc, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rp.Depth() != 1 || rp.Parent() != doc.Child(0) {
		t.Errorf("expected position inside paragraph, depth %d", rp.Depth())
	}
}

func TestNodeAt(t *testing.T) {
	img := NewNode(schema.NodeImage, schema.Attrs{"src": "a.png"})
	doc := NewNode(schema.NodeDoc, nil, p(NewText("ab")), p(NewText("x"), img))

	n, path, err := NodeAt(doc, 6)
	if err != nil {
		t.Fatalf("NodeAt failed: %v", err)
	}
	if n != img {
		t.Fatalf("expected image, got %s", n.Type)
	}
	if !slices.Equal(path, []int{1, 1}) {
		t.Errorf("path = %v", path)
	}
	pos, err := PosOf(doc, path)
	if err != nil || pos != 6 {
		t.Errorf("PosOf = %d, %v", pos, err)
	}

	if _, _, err := NodeAt(doc, 2); err == nil {
		t.Errorf("position inside text must not yield node")
	}
}

func TestReplaceAt_SharesUntouched(t *testing.T) {
	doc := NewNode(schema.NodeDoc, nil, p(NewText("a")), p(NewText("b")))
	next, err := ReplaceAt(doc, []int{1, 0}, func(*Node) *Node { return NewText("c") })
	if err != nil {
		t.Fatalf("ReplaceAt failed: %v", err)
	}
	if next == doc || next.Child(1) == doc.Child(1) {
		t.Errorf("nodes on path must be copied")
	}
	if next.Child(0) != doc.Child(0) {
		t.Errorf("untouched subtree must keep identity")
	}
	if doc.TextContent() != "ab" || next.TextContent() != "ac" {
		t.Errorf("unexpected text %q / %q", doc.TextContent(), next.TextContent())
	}

	next, err = Delete(doc, []int{0})
	if err != nil || next.ChildCount() != 1 || next.Child(0) != doc.Child(1) {
		t.Errorf("Delete failed: %v", err)
	}
	if _, err := Delete(doc, nil); err == nil {
		t.Errorf("deleting root must fail")
	}
	if _, err := ReplaceAt(doc, []int{5}, func(n *Node) *Node { return n }); err == nil {
		t.Errorf("invalid path must fail")
	}
}

func TestWalk(t *testing.T) {
	doc := NewNode(schema.NodeDoc, nil, p(NewText("ab")), NewNode(schema.NodeHorizontalRule, nil), p(NewText("c")))
	var got []int
	Walk(doc, func(n *Node, pos int) bool {
		if !n.IsText() {
			got = append(got, pos)
		}
		return true
	})
	if !slices.Equal(got, []int{0, 4, 5}) {
		t.Errorf("positions = %v", got)
	}
}
