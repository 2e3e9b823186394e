package document

import (
	"io"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"prosekit/css"
	"prosekit/schema"
)

var wsRe = regexp.MustCompile(`[ \t\n\r\f]+`)

// ignoredElements never contribute content.
var ignoredElements = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"title":    true,
	"meta":     true,
	"link":     true,
	"template": true,
	"noscript": true,
}

// blockElements are containers whose inline content forms its own
// paragraph instead of merging with siblings when schema has no rule for
// them.
var blockElements = map[string]bool{
	"p":          true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"blockquote": true,
	"pre":        true,
	"ul":         true,
	"ol":         true,
	"li":         true,
	"table":      true,
	"tr":         true,
	"td":         true,
	"th":         true,
	"div":        true,
	"section":    true,
	"article":    true,
	"header":     true,
	"footer":     true,
	"main":       true,
	"aside":      true,
	"nav":        true,
	"figure":     true,
	"figcaption": true,
	"address":    true,
	"dl":         true,
	"dt":         true,
	"dd":         true,
}

// Parser converts HTML into documents using parse rules of the schema.
// Unknown markup never fails parsing: elements without matching rule are
// unwrapped and content not allowed in place is wrapped, lifted or
// dropped.
type Parser struct {
	schema    *schema.Schema
	css       *css.Parser
	log       *zap.Logger
	nodeRules []schema.Rule
	markRules []schema.Rule
	markRank  map[string]int
}

// NewParser creates parser for schema.
func NewParser(s *schema.Schema, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{
		schema:    s,
		css:       css.NewParser(log),
		log:       log.Named("html-parser"),
		nodeRules: s.NodeRules(),
		markRules: s.MarkRules(),
		markRank:  make(map[string]int),
	}
	for i, name := range s.MarkNames() {
		p.markRank[name] = i
	}
	return p
}

// FromHTML is a convenience wrapper around Parser.
func FromHTML(r io.Reader, s *schema.Schema) (*Node, error) {
	return NewParser(s, nil).Parse(r)
}

// Parse reads HTML fragment and returns document.
func (p *Parser) Parse(r io.Reader) (*Node, error) {
	nodes, err := html.ParseFragment(r, &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return nil, err
	}

	var children []*Node
	for _, n := range nodes {
		children = append(children, p.parseNode(n, parseContext{})...)
	}
	docDef, _ := p.schema.Node(schema.NodeDoc)
	content := p.fit(docDef, children, false)
	if content == nil {
		content = []*Node{}
	}
	return &Node{Type: schema.NodeDoc, Content: content}, nil
}

type parseContext struct {
	marks    []*Mark
	preserve bool
}

func (p *Parser) parseChildren(n *html.Node, ctx parseContext) []*Node {
	var res []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, p.parseNode(c, ctx)...)
	}
	return res
}

func (p *Parser) parseNode(n *html.Node, ctx parseContext) []*Node {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !ctx.preserve {
			text = wsRe.ReplaceAllString(text, " ")
		}
		if text == "" {
			return nil
		}
		return []*Node{NewText(text, ctx.marks...)}

	case html.ElementNode:
		if ignoredElements[n.Data] {
			return nil
		}
		el := &element{node: n, css: p.css}
		ctx.marks = p.applyMarks(el, ctx.marks)

		def, attrs, rule, ok := p.matchNode(el)
		if !ok {
			children := p.parseChildren(n, ctx)
			if blockElements[n.Data] {
				children = p.groupInline(children)
			}
			return children
		}

		node := &Node{Type: def.Name, Attrs: nilIfEmpty(def.DefaultAttrs(attrs))}
		if def.Inline {
			node.Marks = ctx.marks
		}
		if !def.IsLeaf() {
			childCtx := ctx
			childCtx.preserve = ctx.preserve || rule.PreserveWhitespace || def.Code
			node.Content = p.fit(def, p.parseChildren(n, childCtx), childCtx.preserve)
		}
		return []*Node{node}

	case html.DocumentNode:
		return p.parseChildren(n, ctx)
	}
	return nil
}

func (p *Parser) matchNode(el *element) (*schema.TypeDefinition, schema.Attrs, schema.ParseRule, bool) {
	for _, r := range p.nodeRules {
		if attrs, ok := matchTag(r.ParseRule, el); ok {
			return r.Def, attrs, r.ParseRule, true
		}
	}
	return nil, nil, schema.ParseRule{}, false
}

func matchTag(r schema.ParseRule, el *element) (schema.Attrs, bool) {
	if r.Tag == "" || r.TagName() != el.Tag() {
		return nil, false
	}
	for _, name := range r.RequiredAttrs() {
		if _, ok := el.Attr(name); !ok {
			return nil, false
		}
	}
	if r.GetAttrs != nil {
		return r.GetAttrs(el)
	}
	return r.Attrs, true
}

// applyMarks returns active marks extended (or reduced) by marks element
// stands for. Input slice is never modified.
func (p *Parser) applyMarks(el *element, active []*Mark) []*Mark {
	marks := active
	for _, r := range p.markRules {
		if attrs, ok := matchTag(r.ParseRule, el); ok {
			marks = p.addMark(marks, &Mark{Type: r.Def.Name, Attrs: nilIfEmpty(r.Def.DefaultAttrs(attrs))})
			break
		}
	}
	for _, r := range p.markRules {
		if r.Style == "" {
			continue
		}
		prop, want := r.StyleProperty()
		value, ok := el.Style(prop)
		if !ok || (want != "" && value != want) {
			continue
		}
		attrs := r.Attrs
		if r.GetStyleAttrs != nil {
			if attrs, ok = r.GetStyleAttrs(value); !ok {
				continue
			}
		}
		if r.ClearMark {
			marks = slices.DeleteFunc(slices.Clone(marks), func(m *Mark) bool { return m.Type == r.Def.Name })
			continue
		}
		marks = p.addMark(marks, &Mark{Type: r.Def.Name, Attrs: nilIfEmpty(r.Def.DefaultAttrs(attrs))})
	}
	return marks
}

// addMark returns copy of marks with m inserted in schema order, replacing
// mark of the same type.
func (p *Parser) addMark(marks []*Mark, m *Mark) []*Mark {
	res := make([]*Mark, 0, len(marks)+1)
	inserted := false
	for _, cur := range marks {
		if cur.Type == m.Type {
			continue
		}
		if !inserted && p.markRank[m.Type] < p.markRank[cur.Type] {
			res = append(res, m)
			inserted = true
		}
		res = append(res, cur)
	}
	if !inserted {
		res = append(res, m)
	}
	return res
}

func (p *Parser) isInline(n *Node) bool {
	if n.IsText() {
		return true
	}
	def, ok := p.schema.Node(n.Type)
	return ok && def.Inline
}

// groupInline wraps runs of inline nodes into paragraphs, runs made of
// whitespace only are dropped.
func (p *Parser) groupInline(children []*Node) []*Node {
	var res, run []*Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		if !whitespaceOnly(run) {
			paraDef, _ := p.schema.Node(schema.NodeParagraph)
			res = append(res, &Node{Type: schema.NodeParagraph, Content: p.fit(paraDef, run, false)})
		}
		run = nil
	}
	for _, c := range children {
		if p.isInline(c) {
			run = append(run, c)
			continue
		}
		flush()
		res = append(res, c)
	}
	flush()
	return res
}

// fit adjusts parsed children to what def accepts.
func (p *Parser) fit(def *schema.TypeDefinition, children []*Node, preserve bool) []*Node {
	if def.IsLeaf() {
		return nil
	}
	if p.schema.AcceptsInline(def.Name) {
		return p.fitInline(def, children, preserve)
	}
	return p.fitBlock(def, children)
}

func (p *Parser) fitInline(def *schema.TypeDefinition, children []*Node, preserve bool) []*Node {
	var flat []*Node
	var flatten func(nodes []*Node)
	flatten = func(nodes []*Node) {
		for _, n := range nodes {
			if p.isInline(n) {
				flat = append(flat, n)
				continue
			}
			flatten(n.Content)
		}
	}
	flatten(children)

	var res []*Node
	for _, n := range flat {
		if def.Code && n.Type == schema.NodeHardBreak {
			n = NewText("\n")
		}
		if !p.schema.AllowsChild(def.Name, n.Type) {
			p.log.Debug("Inline node dropped", zap.String("type", n.Type), zap.String("parent", def.Name))
			continue
		}
		if len(n.Marks) > 0 {
			marks := slices.DeleteFunc(slices.Clone(n.Marks), func(m *Mark) bool { return !def.AllowsMark(m.Type) })
			if len(marks) != len(n.Marks) {
				cp := *n
				cp.Marks = marks
				n = &cp
			}
		}
		if len(n.Marks) == 0 {
			n.Marks = nil
		}
		res = append(res, n)
	}

	if !preserve {
		res = trimInline(res)
	}
	return mergeText(res)
}

func (p *Parser) fitBlock(def *schema.TypeDefinition, children []*Node) []*Node {
	children = p.groupInline(children)

	var res []*Node
	var lastWrapper *Node
	for _, child := range children {
		if p.schema.AllowsChild(def.Name, child.Type) {
			res = append(res, child)
			lastWrapper = nil
			continue
		}
		if lastWrapper != nil && p.schema.AllowsChild(lastWrapper.Type, child.Type) {
			lastWrapper.Content = append(lastWrapper.Content, child)
			continue
		}
		if wrapper := p.findWrapper(def.Name, child.Type); wrapper != nil {
			node := &Node{Type: wrapper.Name, Attrs: nilIfEmpty(wrapper.DefaultAttrs(nil)), Content: []*Node{child}}
			res = append(res, node)
			lastWrapper = node
			continue
		}
		lastWrapper = nil
		if len(child.Content) > 0 {
			p.log.Debug("Node lifted", zap.String("type", child.Type), zap.String("parent", def.Name))
			res = append(res, p.fitBlock(def, child.Content)...)
			continue
		}
		p.log.Debug("Node dropped", zap.String("type", child.Type), zap.String("parent", def.Name))
	}

	for _, n := range res {
		if wdef, ok := p.schema.Node(n.Type); ok && !wdef.IsLeaf() && !p.schema.ValidContent(n.Type, n.ChildTypes()) {
			n.Content = p.fill(wdef, n.Content)
		}
	}
	return p.fill(def, res)
}

// findWrapper returns node type allowed in parent which itself allows
// child.
func (p *Parser) findWrapper(parent, child string) *schema.TypeDefinition {
	for _, name := range p.schema.NodeNames() {
		def, _ := p.schema.Node(name)
		if def.IsLeaf() || def.Inline || name == schema.NodeParagraph && child != schema.NodeText {
			continue
		}
		if p.schema.AllowsChild(parent, name) && p.schema.AllowsChild(name, child) {
			return def
		}
	}
	return nil
}

// fill completes content with empty paragraph where this makes it valid,
// e.g. list item starting with a nested list or an empty table cell.
func (p *Parser) fill(def *schema.TypeDefinition, content []*Node) []*Node {
	types := func(nodes []*Node) []string {
		res := make([]string, len(nodes))
		for i, n := range nodes {
			res[i] = n.Type
		}
		return res
	}
	if def.Name == schema.NodeDoc || p.schema.ValidContent(def.Name, types(content)) {
		return content
	}
	empty := &Node{Type: schema.NodeParagraph}
	if withPara := append([]*Node{empty}, content...); p.schema.ValidContent(def.Name, types(withPara)) {
		return withPara
	}
	return content
}

func trimInline(nodes []*Node) []*Node {
	res := make([]*Node, 0, len(nodes))
	atLineStart := true
	for _, n := range nodes {
		if !n.IsText() {
			res = append(res, n)
			atLineStart = n.Type == schema.NodeHardBreak
			continue
		}
		text := n.Text
		if atLineStart {
			text = strings.TrimLeft(text, " ")
		}
		if text == "" {
			continue
		}
		atLineStart = strings.HasSuffix(text, " ")
		if text != n.Text {
			n = &Node{Type: n.Type, Text: text, Marks: n.Marks}
		}
		res = append(res, n)
	}
	// trailing space before line end or at the end
	for i := len(res) - 1; i >= 0; i-- {
		if !res[i].IsText() {
			if res[i].Type == schema.NodeHardBreak {
				continue
			}
			break
		}
		text := strings.TrimRight(res[i].Text, " ")
		if text == res[i].Text {
			break
		}
		if text == "" {
			res = slices.Delete(res, i, i+1)
			continue
		}
		res[i] = &Node{Type: res[i].Type, Text: text, Marks: res[i].Marks}
		break
	}
	return res
}

func mergeText(nodes []*Node) []*Node {
	var res []*Node
	for _, n := range nodes {
		if last := len(res) - 1; last >= 0 && n.IsText() && res[last].IsText() && MarksEqual(n.Marks, res[last].Marks) {
			res[last] = &Node{Type: schema.NodeText, Text: res[last].Text + n.Text, Marks: n.Marks}
			continue
		}
		res = append(res, n)
	}
	return res
}

func whitespaceOnly(nodes []*Node) bool {
	for _, n := range nodes {
		if !n.IsText() || strings.TrimSpace(n.Text) != "" {
			return false
		}
	}
	return true
}

func nilIfEmpty(attrs schema.Attrs) schema.Attrs {
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// element adapts html node to schema.Element.
type element struct {
	node   *html.Node
	css    *css.Parser
	styles css.Declarations
}

func (e *element) Tag() string {
	return e.node.Data
}

func (e *element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (e *element) Style(property string) (string, bool) {
	if e.styles == nil {
		style, _ := e.Attr("style")
		e.styles = e.css.ParseInline(style)
	}
	v, ok := e.styles.Get(property)
	if !ok {
		return "", false
	}
	return v.String(), true
}
