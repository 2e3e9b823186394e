package document

import (
	"fmt"
	"slices"
)

// ReplaceAt returns a new tree where node addressed by child index path is
// replaced by fn(node). Only nodes along the path are copied, every other
// subtree is shared with the original.
func ReplaceAt(root *Node, path []int, fn func(n *Node) *Node) (*Node, error) {
	if len(path) == 0 {
		return fn(root), nil
	}
	index := path[0]
	if index < 0 || index >= len(root.Content) {
		return nil, fmt.Errorf("child index %d out of range in %q", index, root.Type)
	}
	child, err := ReplaceAt(root.Content[index], path[1:], fn)
	if err != nil {
		return nil, err
	}
	content := slices.Clone(root.Content)
	if child == nil {
		content = slices.Delete(content, index, index+1)
	} else {
		content[index] = child
	}
	return root.WithContent(content), nil
}

// Delete returns a new tree without node addressed by path.
func Delete(root *Node, path []int) (*Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("cannot delete root node")
	}
	return ReplaceAt(root, path, func(*Node) *Node { return nil })
}

// At returns node addressed by child index path.
func At(root *Node, path []int) (*Node, error) {
	n := root
	for depth, index := range path {
		if index < 0 || index >= len(n.Content) {
			return nil, fmt.Errorf("path %v invalid at depth %d", path, depth)
		}
		n = n.Content[index]
	}
	return n, nil
}

// Walk calls fn for every node in document order with its position. Walk
// descends into children only when fn returns true.
func Walk(root *Node, fn func(n *Node, pos int) bool) {
	var walk func(n *Node, pos int)
	walk = func(n *Node, pos int) {
		for _, c := range n.Content {
			if fn(c, pos) && !c.IsText() {
				walk(c, pos+1)
			}
			pos += c.Size()
		}
	}
	walk(root, 0)
}
