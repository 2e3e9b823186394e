package schema

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FormatAttr converts attribute value to its markup form. False means the
// attribute is not rendered.
func FormatAttr(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := FormatAttr(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

// SanitizePolicy derives policy allowing exactly the elements and
// attributes produced by serializers of this schema (and elements its
// parse rules recognize). Each call returns a new policy.
func (s *Schema) SanitizePolicy() *bluemonday.Policy {
	allowed := make(map[string]map[string]bool)
	note := func(tag string, attrs Attrs) {
		if tag == "" {
			return
		}
		if allowed[tag] == nil {
			allowed[tag] = make(map[string]bool)
		}
		for name := range attrs {
			allowed[tag][name] = true
		}
	}
	collect := func(defs []*TypeDefinition) {
		for _, def := range defs {
			var top Attrs
			if def.Serialize != nil {
				out := def.Serialize(probeAttrs(def), s.classes)
				top = out.Attrs
				for d := out; ; d = *d.Inner {
					note(d.Tag, d.Attrs)
					if d.Inner == nil {
						break
					}
				}
			}
			// alternative tags (h1-h6, b, del) accept what the primary one does
			for _, r := range def.ParseRules {
				note(r.TagName(), top)
			}
		}
	}
	collect(s.nodes)
	collect(s.marks)

	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	for _, tag := range slices.Sorted(maps.Keys(allowed)) {
		p.AllowElements(tag)
		if attrs := slices.Sorted(maps.Keys(allowed[tag])); len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(tag)
		}
	}
	return p
}

// probeAttrs produces attribute values which make serializer emit every
// attribute it knows about. Validate hints are used to pick value type.
func probeAttrs(def *TypeDefinition) Attrs {
	attrs := make(Attrs, len(def.Attrs))
	for name, spec := range def.Attrs {
		switch {
		case strings.HasPrefix(spec.Validate, "array"):
			attrs[name] = []any{2.0, 2.0}
		case strings.HasPrefix(spec.Validate, "number"):
			attrs[name] = 2.0
		default:
			attrs[name] = "x"
		}
	}
	return attrs
}
