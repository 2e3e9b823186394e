package schema

import (
	"fmt"

	"github.com/cozy/prosemirror-go/model"
)

// Model compiles schema into prosemirror-go model so hosts built on that
// library share single definition. Result is computed once.
func (s *Schema) Model() (*model.Schema, error) {
	s.modelOnce.Do(func() {
		s.model, s.modelErr = model.NewSchema(s.modelSpec())
		if s.modelErr != nil {
			s.modelErr = &ConfigurationError{Kind: ErrUnresolvedContent, Detail: fmt.Sprintf("prosemirror model: %v", s.modelErr)}
		}
	})
	return s.model, s.modelErr
}

func (s *Schema) modelSpec() *model.SchemaSpec {
	spec := &model.SchemaSpec{}
	for _, def := range s.nodes {
		spec.Nodes = append(spec.Nodes, &model.NodeSpec{
			Key:     def.Name,
			Content: def.Content,
			Marks:   def.Marks,
			Group:   def.Group,
			Inline:  def.Inline,
			Atom:    def.Atom,
			Attrs:   modelAttrs(def.Attrs),
		})
	}
	for _, def := range s.marks {
		spec.Marks = append(spec.Marks, &model.MarkSpec{
			Key:   def.Name,
			Attrs: modelAttrs(def.Attrs),
		})
	}
	return spec
}

func modelAttrs(attrs map[string]AttributeSpec) map[string]*model.AttributeSpec {
	if len(attrs) == 0 {
		return nil
	}
	res := make(map[string]*model.AttributeSpec, len(attrs))
	for name, spec := range attrs {
		if spec.Required {
			// no spec means no default
			res[name] = nil
			continue
		}
		res[name] = &model.AttributeSpec{Default: spec.Default}
	}
	return res
}
