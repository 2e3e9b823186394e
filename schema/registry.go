package schema

import (
	"errors"
	"fmt"
	"sync"
)

// Registry is a static catalog of node and mark definitions. It is
// read-only after construction and may be shared.
type Registry struct {
	nodes     map[string]*TypeDefinition
	marks     map[string]*TypeDefinition
	nodeOrder []string
	markOrder []string
}

// NewRegistry creates registry from definitions. Names must be unique
// within their kind. A node may reuse the name of a node from another
// registry only when both agree on being a leaf and on table role.
func NewRegistry(defs ...TypeDefinition) (*Registry, error) {
	DefaultRegistry()
	return newRegistry(defs)
}

func newRegistry(defs []TypeDefinition) (*Registry, error) {
	r := &Registry{
		nodes: make(map[string]*TypeDefinition),
		marks: make(map[string]*TypeDefinition),
	}
	for i := range defs {
		def := defs[i]
		if def.Name == "" {
			return nil, errors.New("type definition without name")
		}
		switch def.Kind {
		case KindNode:
			if _, exists := r.nodes[def.Name]; exists {
				return nil, fmt.Errorf("duplicate node definition %q", def.Name)
			}
			r.nodes[def.Name] = &def
			r.nodeOrder = append(r.nodeOrder, def.Name)
		case KindMark:
			if _, exists := r.marks[def.Name]; exists {
				return nil, fmt.Errorf("duplicate mark definition %q", def.Name)
			}
			r.marks[def.Name] = &def
			r.markOrder = append(r.markOrder, def.Name)
		default:
			return nil, fmt.Errorf("definition %q has unsupported kind %d", def.Name, def.Kind)
		}
	}
	if err := publishShapes(r); err != nil {
		return nil, err
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := newRegistry(append(builtinNodes(), builtinMarks()...))
	if err != nil {
		panic(fmt.Sprintf("built-in registry: %v", err))
	}
	return r
})

// DefaultRegistry returns registry with all built-in node and mark types.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Node returns node definition by name.
func (r *Registry) Node(name string) (*TypeDefinition, bool) {
	def, ok := r.nodes[name]
	return def, ok
}

// Mark returns mark definition by name.
func (r *Registry) Mark(name string) (*TypeDefinition, bool) {
	def, ok := r.marks[name]
	return def, ok
}

// NodeNames returns node names in registration order.
func (r *Registry) NodeNames() []string {
	return append([]string(nil), r.nodeOrder...)
}

// MarkNames returns mark names in registration order.
func (r *Registry) MarkNames() []string {
	return append([]string(nil), r.markOrder...)
}

// shape is what node sizing and table projection need to know about a node
// type when only its name is at hand.
type shape struct {
	leaf bool
	role TableRole
}

var (
	shapesMu sync.RWMutex
	shapes   = make(map[string]shape)
)

func publishShapes(r *Registry) error {
	shapesMu.Lock()
	defer shapesMu.Unlock()

	for _, name := range r.nodeOrder {
		def := r.nodes[name]
		if known, ok := shapes[name]; ok && known != (shape{leaf: def.IsLeaf(), role: def.TableRole}) {
			return fmt.Errorf("node %q does not match node of the same name in another registry", name)
		}
	}
	for _, name := range r.nodeOrder {
		def := r.nodes[name]
		shapes[name] = shape{leaf: def.IsLeaf(), role: def.TableRole}
	}
	return nil
}

// LeafNode reports whether node type defined by any registry has no
// content slot.
func LeafNode(name string) bool {
	DefaultRegistry()
	shapesMu.RLock()
	defer shapesMu.RUnlock()
	return shapes[name].leaf
}

// NodeRole returns table role of node type defined by any registry.
func NodeRole(name string) TableRole {
	DefaultRegistry()
	shapesMu.RLock()
	defer shapesMu.RUnlock()
	return shapes[name].role
}
