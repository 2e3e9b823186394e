package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ContentExpr is a compiled content expression such as "paragraph block*"
// or "(table_cell | table_header)*".
type ContentExpr struct {
	source string
	root   *exprNode // nil for empty expression
}

type exprKind int

const (
	exprName exprKind = iota
	exprSeq
	exprChoice
	exprRange
)

type exprNode struct {
	kind  exprKind
	name  string
	items []*exprNode
	min   int
	max   int // -1 means unbounded
}

// TermMatcher reports whether a child of type typeName satisfies term (node
// name or group name).
type TermMatcher func(term, typeName string) bool

// ParseContent compiles content expression. Empty string describes a leaf.
func ParseContent(src string) (*ContentExpr, error) {
	expr := &ContentExpr{source: src}
	toks, err := tokenizeContent(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return expr, nil
	}

	p := &contentParser{src: src, toks: toks}
	root, err := p.parseChoice()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("unexpected token %q in content expression %q", p.toks[p.pos], src)
	}
	expr.root = root
	return expr, nil
}

func (c *ContentExpr) String() string {
	return c.source
}

// Empty reports whether expression allows no content at all.
func (c *ContentExpr) Empty() bool {
	return c.root == nil
}

// Terms returns distinct names referenced by expression in order of
// appearance.
func (c *ContentExpr) Terms() []string {
	var terms []string
	var walk func(n *exprNode)
	walk = func(n *exprNode) {
		if n == nil {
			return
		}
		if n.kind == exprName {
			if !slices.Contains(terms, n.name) {
				terms = append(terms, n.name)
			}
			return
		}
		for _, item := range n.items {
			walk(item)
		}
	}
	walk(c.root)
	return terms
}

// Allows reports whether a child of typeName may appear anywhere in content.
func (c *ContentExpr) Allows(typeName string, m TermMatcher) bool {
	for _, term := range c.Terms() {
		if m(term, typeName) {
			return true
		}
	}
	return false
}

// Match reports whether sequence of child type names satisfies expression.
func (c *ContentExpr) Match(types []string, m TermMatcher) bool {
	if c.root == nil {
		return len(types) == 0
	}
	return slices.Contains(c.root.advance(types, []int{0}, m), len(types))
}

// advance returns sorted set of positions reachable after matching node
// starting from any position in from.
func (n *exprNode) advance(types []string, from []int, m TermMatcher) []int {
	switch n.kind {
	case exprName:
		var res []int
		for _, p := range from {
			if p < len(types) && m(n.name, types[p]) {
				res = addPos(res, p+1)
			}
		}
		return res

	case exprSeq:
		cur := from
		for _, item := range n.items {
			if len(cur) == 0 {
				break
			}
			cur = item.advance(types, cur, m)
		}
		return cur

	case exprChoice:
		var res []int
		for _, item := range n.items {
			for _, p := range item.advance(types, from, m) {
				res = addPos(res, p)
			}
		}
		return res

	case exprRange:
		var res []int
		if n.min == 0 {
			res = slices.Clone(from)
		}
		cur := from
		for count := 1; n.max < 0 || count <= n.max; count++ {
			cur = n.items[0].advance(types, cur, m)
			if len(cur) == 0 {
				break
			}
			if count >= n.min {
				before := len(res)
				for _, p := range cur {
					res = addPos(res, p)
				}
				// nothing new reachable, further repetitions cannot help
				if len(res) == before && count > n.min {
					break
				}
			}
			if count > len(types)+n.min {
				break
			}
		}
		return res
	}
	return nil
}

func addPos(set []int, p int) []int {
	i, found := slices.BinarySearch(set, p)
	if found {
		return set
	}
	return slices.Insert(set, i, p)
}

func tokenizeContent(src string) ([]string, error) {
	var toks []string
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.ContainsRune("()|*+?{},", r):
			toks = append(toks, string(r))
			i++
		case r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || rs[i] == '-' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, string(rs[start:i]))
		default:
			return nil, fmt.Errorf("unexpected character %q in content expression %q", r, src)
		}
	}
	return toks, nil
}

type contentParser struct {
	src  string
	toks []string
	pos  int
}

func (p *contentParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *contentParser) eat(tok string) bool {
	if p.peek() == tok {
		p.pos++
		return true
	}
	return false
}

func (p *contentParser) parseChoice() (*exprNode, error) {
	seq, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	items := []*exprNode{seq}
	for p.eat("|") {
		if seq, err = p.parseSeq(); err != nil {
			return nil, err
		}
		items = append(items, seq)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &exprNode{kind: exprChoice, items: items}, nil
}

func (p *contentParser) parseSeq() (*exprNode, error) {
	var items []*exprNode
	for p.pos < len(p.toks) && p.peek() != ")" && p.peek() != "|" {
		item, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	switch len(items) {
	case 0:
		return nil, fmt.Errorf("empty sequence in content expression %q", p.src)
	case 1:
		return items[0], nil
	default:
		return &exprNode{kind: exprSeq, items: items}, nil
	}
}

func (p *contentParser) parsePostfix() (*exprNode, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.eat("*"):
			atom = &exprNode{kind: exprRange, items: []*exprNode{atom}, min: 0, max: -1}
		case p.eat("+"):
			atom = &exprNode{kind: exprRange, items: []*exprNode{atom}, min: 1, max: -1}
		case p.eat("?"):
			atom = &exprNode{kind: exprRange, items: []*exprNode{atom}, min: 0, max: 1}
		case p.eat("{"):
			lo, hi, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			atom = &exprNode{kind: exprRange, items: []*exprNode{atom}, min: lo, max: hi}
		default:
			return atom, nil
		}
	}
}

func (p *contentParser) parseBounds() (int, int, error) {
	lo, err := p.parseNum()
	if err != nil {
		return 0, 0, err
	}
	hi := lo
	if p.eat(",") {
		if p.peek() != "}" {
			if hi, err = p.parseNum(); err != nil {
				return 0, 0, err
			}
		} else {
			hi = -1
		}
	}
	if !p.eat("}") {
		return 0, 0, fmt.Errorf("unclosed braced range in content expression %q", p.src)
	}
	if hi >= 0 && hi < lo {
		return 0, 0, fmt.Errorf("invalid range {%d,%d} in content expression %q", lo, hi, p.src)
	}
	return lo, hi, nil
}

func (p *contentParser) parseNum() (int, error) {
	n, err := strconv.Atoi(p.peek())
	if err != nil {
		return 0, fmt.Errorf("expected number in content expression %q: %w", p.src, err)
	}
	p.pos++
	return n, nil
}

func (p *contentParser) parseAtom() (*exprNode, error) {
	if p.eat("(") {
		inner, err := p.parseChoice()
		if err != nil {
			return nil, err
		}
		if !p.eat(")") {
			return nil, fmt.Errorf("missing closing parenthesis in content expression %q", p.src)
		}
		return inner, nil
	}
	tok := p.peek()
	if tok == "" || strings.ContainsAny(tok, "()|*+?{},") {
		return nil, fmt.Errorf("unexpected token %q in content expression %q", tok, p.src)
	}
	p.pos++
	return &exprNode{kind: exprName, name: tok}, nil
}
