package schema

import (
	"sync"

	"github.com/cozy/prosemirror-go/model"
)

// Capabilities are flags the host acts upon after assembling schema.
type Capabilities struct {
	// TableEditing asks host to enable table editing affordances (cell
	// resizing, disabling native object resizing).
	TableEditing bool
}

// Schema is an assembled, read-only set of node and mark definitions bound
// to a class mapping.
type Schema struct {
	nodes     []*TypeDefinition
	marks     []*TypeDefinition
	nodeIndex map[string]*TypeDefinition
	markIndex map[string]*TypeDefinition
	content   map[string]*ContentExpr
	classes   *ClassMapping
	caps      Capabilities

	modelOnce sync.Once
	model     *model.Schema
	modelErr  error
}

// Rule is a parse rule together with the definition it produces.
type Rule struct {
	Def *TypeDefinition
	ParseRule
}

// NodeNames returns node names in schema order.
func (s *Schema) NodeNames() []string {
	names := make([]string, 0, len(s.nodes))
	for _, def := range s.nodes {
		names = append(names, def.Name)
	}
	return names
}

// MarkNames returns mark names in schema order.
func (s *Schema) MarkNames() []string {
	names := make([]string, 0, len(s.marks))
	for _, def := range s.marks {
		names = append(names, def.Name)
	}
	return names
}

func (s *Schema) Node(name string) (*TypeDefinition, bool) {
	def, ok := s.nodeIndex[name]
	return def, ok
}

func (s *Schema) Mark(name string) (*TypeDefinition, bool) {
	def, ok := s.markIndex[name]
	return def, ok
}

func (s *Schema) HasNode(name string) bool {
	_, ok := s.nodeIndex[name]
	return ok
}

func (s *Schema) HasMark(name string) bool {
	_, ok := s.markIndex[name]
	return ok
}

func (s *Schema) Capabilities() Capabilities {
	return s.caps
}

func (s *Schema) Classes() *ClassMapping {
	return s.classes
}

// ContentExpr returns compiled content expression of a node type.
func (s *Schema) ContentExpr(name string) *ContentExpr {
	if expr, ok := s.content[name]; ok {
		return expr
	}
	return &ContentExpr{}
}

// MatchTerm reports whether node of typeName satisfies content term which
// is either a node name or a group name.
func (s *Schema) MatchTerm(term, typeName string) bool {
	if term == typeName {
		return true
	}
	def, ok := s.nodeIndex[typeName]
	return ok && def.InGroup(term)
}

// ValidContent reports whether children sequence is allowed inside parent.
func (s *Schema) ValidContent(parent string, children []string) bool {
	return s.ContentExpr(parent).Match(children, s.MatchTerm)
}

// AllowsChild reports whether child type may appear inside parent at all.
func (s *Schema) AllowsChild(parent, child string) bool {
	return s.ContentExpr(parent).Allows(child, s.MatchTerm)
}

// AcceptsInline reports whether parent holds inline content.
func (s *Schema) AcceptsInline(parent string) bool {
	return s.AllowsChild(parent, NodeText)
}

// SerializeNode renders node with attributes completed by defaults. False
// is returned for types which have no markup of their own (doc, text).
func (s *Schema) SerializeNode(name string, attrs Attrs) (DOMSpec, bool) {
	def, ok := s.nodeIndex[name]
	if !ok || def.Serialize == nil {
		return DOMSpec{}, false
	}
	return def.Serialize(def.DefaultAttrs(attrs), s.classes), true
}

// SerializeMark renders mark with attributes completed by defaults.
func (s *Schema) SerializeMark(name string, attrs Attrs) (DOMSpec, bool) {
	def, ok := s.markIndex[name]
	if !ok || def.Serialize == nil {
		return DOMSpec{}, false
	}
	return def.Serialize(def.DefaultAttrs(attrs), s.classes), true
}

// NodeRules returns parse rules of all nodes in schema order.
func (s *Schema) NodeRules() []Rule {
	return collectRules(s.nodes)
}

// MarkRules returns parse rules of all marks in schema order.
func (s *Schema) MarkRules() []Rule {
	return collectRules(s.marks)
}

func collectRules(defs []*TypeDefinition) []Rule {
	var rules []Rule
	for _, def := range defs {
		for _, r := range def.ParseRules {
			rules = append(rules, Rule{Def: def, ParseRule: r})
		}
	}
	return rules
}
