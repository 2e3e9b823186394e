package document

import (
	"slices"
	"strings"

	"prosekit/schema"
)

// LeafText stands for inline leaf nodes in text produced by TextBetween.
const LeafText = "\ufffc"

// WithMarks returns shallow copy of n carrying marks.
func (n *Node) WithMarks(marks []*Mark) *Node {
	cp := *n
	cp.Marks = marks
	return &cp
}

// AddToSet returns marks with m added in schema order. Mark of the same type
// is replaced.
func AddToSet(marks []*Mark, m *Mark, s *schema.Schema) []*Mark {
	res := make([]*Mark, 0, len(marks)+1)
	for _, cur := range marks {
		if cur.Type != m.Type {
			res = append(res, cur)
		}
	}
	rank := s.MarkNames()
	at := len(res)
	for i, cur := range res {
		if slices.Index(rank, cur.Type) > slices.Index(rank, m.Type) {
			at = i
			break
		}
	}
	return slices.Insert(res, at, m)
}

// RemoveFromSet returns marks without marks of type.
func RemoveFromSet(marks []*Mark, typ string) []*Mark {
	if !slices.ContainsFunc(marks, func(m *Mark) bool { return m.Type == typ }) {
		return marks
	}
	return slices.DeleteFunc(slices.Clone(marks), func(m *Mark) bool { return m.Type == typ })
}

// JoinText merges adjacent text nodes carrying equal marks.
func JoinText(content []*Node) []*Node {
	res := make([]*Node, 0, len(content))
	for _, c := range content {
		if c.IsText() && c.Text == "" {
			continue
		}
		if last := len(res) - 1; last >= 0 && c.IsText() && res[last].IsText() && MarksEqual(res[last].Marks, c.Marks) {
			joined := *res[last]
			joined.Text += c.Text
			res[last] = &joined
			continue
		}
		res = append(res, c)
	}
	return res
}

// splitInline cuts inline content at offset, text node crossing the offset
// is split in two.
func splitInline(content []*Node, offset int) ([]*Node, []*Node) {
	pos := 0
	for i, c := range content {
		size := c.Size()
		switch {
		case offset <= pos:
			return content[:i:i], content[i:]
		case offset < pos+size && c.IsText():
			left, right := SplitText(c.Text, offset-pos)
			l, r := *c, *c
			l.Text, r.Text = left, right
			head := append(slices.Clone(content[:i]), &l)
			return head, append([]*Node{&r}, content[i+1:]...)
		}
		pos += size
	}
	return content, nil
}

// ReplaceInline returns textblock with content between offsets from and to,
// relative to the start of its content, replaced by nodes.
func ReplaceInline(tb *Node, from, to int, nodes ...*Node) *Node {
	before, rest := splitInline(tb.Content, from)
	_, after := splitInline(rest, to-from)
	content := make([]*Node, 0, len(before)+len(nodes)+len(after))
	content = append(content, before...)
	content = append(content, nodes...)
	content = append(content, after...)
	return tb.WithContent(JoinText(content))
}

// TextBetween returns text of textblock between content offsets, inline
// leaves are replaced with leaf.
func TextBetween(tb *Node, from, to int, leaf string) string {
	var sb strings.Builder
	pos := 0
	for _, c := range tb.Content {
		size := c.Size()
		start, end := max(from, pos), min(to, pos+size)
		if start < end {
			if c.IsText() {
				_, tail := SplitText(c.Text, start-pos)
				part, _ := SplitText(tail, end-start)
				sb.WriteString(part)
			} else {
				sb.WriteString(leaf)
			}
		}
		pos += size
	}
	return sb.String()
}

// MapInline returns tree where every inline node lying between from and to
// is replaced by fn(parent, node). Text crossing range edges is split and
// text with equal marks is joined again afterwards. Subtrees outside of the
// range keep their identity.
func MapInline(root *Node, from, to int, s *schema.Schema, fn func(parent, n *Node) *Node) *Node {
	return mapInline(root, 0, from, to, s, fn)
}

func mapInline(n *Node, start, from, to int, s *schema.Schema, fn func(parent, n *Node) *Node) *Node {
	changed := false
	content := make([]*Node, 0, len(n.Content))
	pos := start
	for _, c := range n.Content {
		end := pos + c.Size()
		if end <= from || pos >= to {
			content = append(content, c)
			pos = end
			continue
		}
		switch {
		case c.IsText():
			head, tail := SplitText(c.Text, max(from, pos)-pos)
			mid, rest := SplitText(tail, min(to, end)-max(from, pos))
			for i, part := range [...]string{head, mid, rest} {
				if part == "" {
					continue
				}
				piece := c
				if part != c.Text {
					cp := *c
					cp.Text = part
					piece = &cp
				}
				if i == 1 {
					if mapped := fn(n, piece); mapped != piece {
						piece, changed = mapped, true
					}
				}
				content = append(content, piece)
			}
		case isInline(c, s):
			mapped := fn(n, c)
			changed = changed || mapped != c
			content = append(content, mapped)
		default:
			mapped := mapInline(c, pos+1, from, to, s, fn)
			changed = changed || mapped != c
			content = append(content, mapped)
		}
		pos = end
	}
	if !changed {
		return n
	}
	return n.WithContent(JoinText(content))
}

func isInline(n *Node, s *schema.Schema) bool {
	if n.IsText() {
		return true
	}
	def, ok := s.Node(n.Type)
	return ok && def.Inline
}

// RangeHasMark reports whether any inline node between from and to carries
// mark of type.
func RangeHasMark(root *Node, from, to int, typ string) bool {
	found := false
	Walk(root, func(n *Node, pos int) bool {
		if found || pos >= to || pos+n.Size() <= from {
			return false
		}
		if n.HasMark(typ) {
			found = true
			return false
		}
		return true
	})
	return found
}

// MarksAt returns marks text inserted at pos would get: marks of inline node
// before pos, or after it at the start of a textblock. Marks which are not
// inclusive are kept only when node after pos carries them as well.
func MarksAt(doc *Node, pos int, s *schema.Schema) []*Mark {
	rp, err := Resolve(doc, pos)
	if err != nil {
		return nil
	}
	parent := rp.Parent()
	if len(parent.Content) == 0 {
		return nil
	}
	index, offset := findIndex(parent, rp.ParentOffset)
	if offset < rp.ParentOffset {
		return parent.Content[index].Marks
	}
	var before, after *Node
	if index > 0 {
		before = parent.Content[index-1]
	}
	if index < len(parent.Content) {
		after = parent.Content[index]
	}
	if before == nil {
		before, after = after, nil
	}
	if before == nil {
		return nil
	}
	marks := before.Marks
	for _, m := range before.Marks {
		def, ok := s.Mark(m.Type)
		if ok && def.Noninclusive && (after == nil || !slices.ContainsFunc(after.Marks, m.Equal)) {
			marks = RemoveFromSet(marks, m.Type)
		}
	}
	return marks
}
