// Package schema assembles document schema from an allow-list of node and
// mark types known to a registry.
package schema

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config is the allow-list editor is constructed with.
type Config struct {
	AllowedNodes []string
	AllowedMarks []string
	ClassNames   map[string]string
}

// requiredNodes are always present in assembled schema, in this order.
var requiredNodes = []string{NodeDoc, NodeParagraph, NodeText}

// Builder validates configuration against registry and assembles schema.
type Builder struct {
	reg *Registry
	log *zap.Logger
}

// NewBuilder creates builder, nil registry means DefaultRegistry.
func NewBuilder(reg *Registry, log *zap.Logger) *Builder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{reg: reg, log: log.Named("schema")}
}

// Build is a shortcut for NewBuilder(reg, nil).Build(cfg, classes).
func Build(cfg Config, reg *Registry, classes *ClassMapping) (*Schema, error) {
	return NewBuilder(reg, nil).Build(cfg, classes)
}

// Build assembles schema. When classes is nil mapping is created from
// cfg.ClassNames. Returned error wraps one or more *ConfigurationError.
func (b *Builder) Build(cfg Config, classes *ClassMapping) (*Schema, error) {
	if !slices.Contains(cfg.AllowedNodes, NodeParagraph) {
		return nil, &ConfigurationError{Kind: ErrParagraphRequired}
	}

	var err error
	for _, name := range cfg.AllowedNodes {
		if _, ok := b.reg.Node(name); !ok {
			err = multierr.Append(err, &ConfigurationError{Kind: ErrUnknownType, Name: name, Detail: "not a known node type"})
		}
	}
	for _, name := range cfg.AllowedMarks {
		if _, ok := b.reg.Mark(name); !ok {
			err = multierr.Append(err, &ConfigurationError{Kind: ErrUnknownType, Name: name, Detail: "not a known mark type"})
		}
	}
	if err != nil {
		return nil, err
	}

	if classes == nil {
		classes = NewClassMapping(cfg.ClassNames)
	}
	s := &Schema{
		nodeIndex: make(map[string]*TypeDefinition),
		markIndex: make(map[string]*TypeDefinition),
		content:   make(map[string]*ContentExpr),
		classes:   classes,
	}

	var addNode func(name string) error
	addNode = func(name string) error {
		if s.HasNode(name) {
			return nil
		}
		def, ok := b.reg.Node(name)
		if !ok {
			return &ConfigurationError{Kind: ErrUnknownType, Name: name, Detail: "implied type is not in registry"}
		}
		s.nodes = append(s.nodes, def)
		s.nodeIndex[name] = def
		var err error
		for _, implied := range def.Implies {
			err = multierr.Append(err, addNode(implied))
		}
		return err
	}

	for _, name := range requiredNodes {
		err = multierr.Append(err, addNode(name))
	}
	for _, name := range cfg.AllowedNodes {
		err = multierr.Append(err, addNode(name))
	}
	for _, name := range cfg.AllowedMarks {
		if s.HasMark(name) {
			continue
		}
		def, _ := b.reg.Mark(name)
		s.marks = append(s.marks, def)
		s.markIndex[name] = def
	}
	if err != nil {
		return nil, err
	}

	if err := s.compileContent(); err != nil {
		return nil, err
	}

	s.caps.TableEditing = s.HasNode(NodeTable)

	b.log.Debug("Schema assembled",
		zap.Strings("nodes", s.NodeNames()),
		zap.Strings("marks", s.MarkNames()),
		zap.Bool("table_editing", s.caps.TableEditing))
	return s, nil
}

// compileContent parses content expressions and makes sure every term
// resolves to a node or a group present in schema.
func (s *Schema) compileContent() error {
	groups := make(map[string]bool)
	for _, def := range s.nodes {
		for g := range strings.FieldsSeq(def.Group) {
			groups[g] = true
		}
	}

	var err error
	for _, def := range s.nodes {
		expr, perr := ParseContent(def.Content)
		if perr != nil {
			err = multierr.Append(err, &ConfigurationError{Kind: ErrUnresolvedContent, Name: def.Name, Detail: perr.Error()})
			continue
		}
		for _, term := range expr.Terms() {
			if !s.HasNode(term) && !groups[term] {
				err = multierr.Append(err, &ConfigurationError{
					Kind:   ErrUnresolvedContent,
					Name:   def.Name,
					Detail: fmt.Sprintf("content %q references %q", def.Content, term),
				})
			}
		}
		s.content[def.Name] = expr
	}
	return err
}
