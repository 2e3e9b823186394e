package schema

import (
	"maps"
	"slices"
)

// ClassMapping maps type names to CSS classes injected at serialization. It
// is immutable after construction and safe to share.
type ClassMapping struct {
	classes map[string]string
}

// NewClassMapping copies classes, empty values are ignored.
func NewClassMapping(classes map[string]string) *ClassMapping {
	m := &ClassMapping{classes: make(map[string]string, len(classes))}
	for name, class := range classes {
		if class != "" {
			m.classes[name] = class
		}
	}
	return m
}

// Class returns configured class for typeName or empty string.
func (m *ClassMapping) Class(typeName string) string {
	if m == nil {
		return ""
	}
	return m.classes[typeName]
}

// Names returns type names having a class configured.
func (m *ClassMapping) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.classes))
}

// Apply returns attributes to render for typeName. When no class is
// configured and base is empty it returns (nil, false) so callers render
// the element without attributes. Otherwise result is a new map equal to
// base with "class" set to the configured class, base is never modified.
func (m *ClassMapping) Apply(base Attrs, typeName string) (Attrs, bool) {
	class := m.Class(typeName)
	if class == "" {
		if len(base) == 0 {
			return nil, false
		}
		return base.Clone(), true
	}

	res := make(Attrs, len(base)+1)
	maps.Copy(res, base)
	res["class"] = class
	return res, true
}

// apply is Apply for serializers which only need the attributes.
func (m *ClassMapping) apply(base Attrs, typeName string) Attrs {
	attrs, _ := m.Apply(base, typeName)
	return attrs
}
