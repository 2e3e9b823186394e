package document

import "fmt"

type pathLevel struct {
	node  *Node
	index int
	pos   int // absolute position before child at index
}

// ResolvedPos is a position in document together with the path of
// ancestors containing it. Depth 0 is the document itself.
type ResolvedPos struct {
	Pos          int
	ParentOffset int
	path         []pathLevel
}

// Resolve resolves absolute position. Positions count 1 per leaf node, 1
// per character of text and 1 for each container boundary.
func Resolve(doc *Node, pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > doc.ContentSize() {
		return nil, fmt.Errorf("position %d out of range [0, %d]", pos, doc.ContentSize())
	}

	rp := &ResolvedPos{Pos: pos}
	start := 0
	parentOffset := pos
	for node := doc; ; {
		index, offset := findIndex(node, parentOffset)
		rem := parentOffset - offset
		rp.path = append(rp.path, pathLevel{node: node, index: index, pos: start + offset})
		if rem == 0 {
			break
		}
		child := node.Content[index]
		if child.IsText() {
			break
		}
		node = child
		parentOffset = rem - 1
		start += offset + 1
	}
	rp.ParentOffset = parentOffset
	return rp, nil
}

// findIndex returns index of child containing offset and the offset at
// which that child starts.
func findIndex(n *Node, offset int) (int, int) {
	cur := 0
	for i, c := range n.Content {
		end := cur + c.Size()
		if offset == cur || end > offset {
			return i, cur
		}
		cur = end
	}
	return len(n.Content), cur
}

// Depth returns number of ancestors above the parent.
func (rp *ResolvedPos) Depth() int {
	return len(rp.path) - 1
}

// Node returns ancestor at depth, negative depth counts from the parent.
func (rp *ResolvedPos) Node(depth int) *Node {
	return rp.path[rp.resolveDepth(depth)].node
}

// Index returns index into ancestor at depth.
func (rp *ResolvedPos) Index(depth int) int {
	return rp.path[rp.resolveDepth(depth)].index
}

// Parent returns innermost node containing position.
func (rp *ResolvedPos) Parent() *Node {
	return rp.Node(rp.Depth())
}

// Start returns position at which content of ancestor at depth starts.
func (rp *ResolvedPos) Start(depth int) int {
	depth = rp.resolveDepth(depth)
	if depth == 0 {
		return 0
	}
	return rp.path[depth-1].pos + 1
}

// Before returns position directly before ancestor at depth, depth must be
// at least 1.
func (rp *ResolvedPos) Before(depth int) int {
	depth = rp.resolveDepth(depth)
	if depth == 0 {
		return 0
	}
	return rp.path[depth-1].pos
}

// End returns position at which content of ancestor at depth ends.
func (rp *ResolvedPos) End(depth int) int {
	return rp.Start(depth) + rp.Node(depth).ContentSize()
}

// IndexAfter returns index into ancestor at depth of the first child after
// position.
func (rp *ResolvedPos) IndexAfter(depth int) int {
	depth = rp.resolveDepth(depth)
	if depth == rp.Depth() && rp.TextOffset() == 0 {
		return rp.Index(depth)
	}
	return rp.Index(depth) + 1
}

// TextOffset returns offset of position into text node containing it, 0
// when position lies between nodes.
func (rp *ResolvedPos) TextOffset() int {
	_, offset := findIndex(rp.Parent(), rp.ParentOffset)
	return rp.ParentOffset - offset
}

// SharedDepth returns depth of the deepest ancestor containing both rp and
// other position of the same document.
func (rp *ResolvedPos) SharedDepth(other *ResolvedPos) int {
	depth := 0
	for d := 0; d < min(rp.Depth(), other.Depth()); d++ {
		if rp.path[d].index != other.path[d].index {
			break
		}
		depth = d + 1
	}
	return depth
}

// NodeAfter returns node directly after position or nil. Position inside
// text node yields nil.
func (rp *ResolvedPos) NodeAfter() *Node {
	parent := rp.Parent()
	index := rp.Index(rp.Depth())
	if index >= len(parent.Content) {
		return nil
	}
	_, offset := findIndex(parent, rp.ParentOffset)
	if offset != rp.ParentOffset {
		return nil
	}
	return parent.Content[index]
}

// Path returns child indexes leading to the parent node.
func (rp *ResolvedPos) Path() []int {
	indexes := make([]int, 0, rp.Depth())
	for d := 0; d < rp.Depth(); d++ {
		indexes = append(indexes, rp.path[d].index)
	}
	return indexes
}

// Find returns deepest depth whose node satisfies pred, -1 when none does.
func (rp *ResolvedPos) Find(pred func(n *Node) bool) int {
	for d := rp.Depth(); d >= 0; d-- {
		if pred(rp.path[d].node) {
			return d
		}
	}
	return -1
}

func (rp *ResolvedPos) resolveDepth(depth int) int {
	if depth < 0 {
		return rp.Depth() + depth
	}
	return depth
}

// NodeAt returns node starting at pos together with its child index path.
func NodeAt(doc *Node, pos int) (*Node, []int, error) {
	rp, err := Resolve(doc, pos)
	if err != nil {
		return nil, nil, err
	}
	n := rp.NodeAfter()
	if n == nil {
		return nil, nil, fmt.Errorf("no node starts at position %d", pos)
	}
	return n, append(rp.Path(), rp.Index(rp.Depth())), nil
}

// PosOf returns position before node addressed by child index path.
func PosOf(doc *Node, path []int) (int, error) {
	pos := 0
	node := doc
	for depth, index := range path {
		if index < 0 || index >= len(node.Content) {
			return 0, fmt.Errorf("path %v invalid at depth %d", path, depth)
		}
		for _, c := range node.Content[:index] {
			pos += c.Size()
		}
		node = node.Content[index]
		if depth < len(path)-1 {
			pos++
		}
	}
	return pos, nil
}
