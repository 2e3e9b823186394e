package schema

import "regexp"

var boldWeightRe = regexp.MustCompile(`^(bold(er)?|[5-9]\d{2,})$`)

func builtinMarks() []TypeDefinition {
	return []TypeDefinition{
		{
			Kind: KindMark,
			Name: MarkStrong,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "strong", Attrs: cm.apply(nil, MarkStrong), ContentSlot: true}
			},
			ParseRules: []ParseRule{
				{Tag: "strong"},
				// Google Docs wraps pasted content in <b style="font-weight:normal">
				{Tag: "b", GetAttrs: func(el Element) (Attrs, bool) {
					weight, _ := el.Style("font-weight")
					return nil, weight != "normal"
				}},
				{Style: "font-weight=400", ClearMark: true},
				{Style: "font-weight", GetStyleAttrs: func(value string) (Attrs, bool) {
					return nil, boldWeightRe.MatchString(value)
				}},
			},
		},
		{
			Kind: KindMark,
			Name: MarkEm,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "em", Attrs: cm.apply(nil, MarkEm), ContentSlot: true}
			},
			ParseRules: []ParseRule{
				{Tag: "i"},
				{Tag: "em"},
				{Style: "font-style=italic"},
				{Style: "font-style=normal", ClearMark: true},
			},
		},
		{
			Kind:         KindMark,
			Name:         MarkLink,
			Noninclusive: true,
			Attrs: map[string]AttributeSpec{
				"href":  {Required: true, Validate: "string"},
				"title": {Default: nil, Validate: "string|null"},
			},
			Serialize: func(attrs Attrs, cm *ClassMapping) DOMSpec {
				base := nonNil(Attrs{"href": attrs["href"], "title": attrs["title"]})
				return DOMSpec{Tag: "a", Attrs: cm.apply(base, MarkLink), ContentSlot: true}
			},
			ParseRules: []ParseRule{{
				Tag: "a[href]",
				GetAttrs: func(el Element) (Attrs, bool) {
					href, _ := el.Attr("href")
					return Attrs{"href": href, "title": optionalAttr(el, "title")}, true
				},
			}},
		},
		{
			Kind: KindMark,
			Name: MarkCode,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "code", Attrs: cm.apply(nil, MarkCode), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "code"}},
		},
		{
			Kind: KindMark,
			Name: MarkUnderline,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "u", Attrs: cm.apply(nil, MarkUnderline), ContentSlot: true}
			},
			ParseRules: []ParseRule{
				{Tag: "u"},
				{Style: "text-decoration=underline"},
			},
		},
		{
			Kind: KindMark,
			Name: MarkStrikethrough,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "s", Attrs: cm.apply(nil, MarkStrikethrough), ContentSlot: true}
			},
			ParseRules: []ParseRule{
				{Tag: "s"},
				{Tag: "del"},
				{Tag: "strike"},
				{Style: "text-decoration=line-through"},
				{Style: "text-decoration-line=line-through"},
			},
		},
	}
}
