package schema

import (
	"regexp"
	"strconv"
	"strings"
)

var colwidthRe = regexp.MustCompile(`^\d+(,\d+)*$`)

func builtinNodes() []TypeDefinition {
	return []TypeDefinition{
		{
			Kind:    KindNode,
			Name:    NodeDoc,
			Content: "block+",
		},
		{
			Kind:   KindNode,
			Name:   NodeText,
			Group:  GroupInline,
			Inline: true,
		},
		{
			Kind:    KindNode,
			Name:    NodeParagraph,
			Content: "inline*",
			Group:   GroupBlock,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "p", Attrs: cm.apply(nil, NodeParagraph), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "p"}},
		},
		{
			Kind:     KindNode,
			Name:     NodeHeading,
			Content:  "inline*",
			Group:    GroupBlock,
			Defining: true,
			Attrs: map[string]AttributeSpec{
				"level": {Default: 1.0, Validate: "number"},
			},
			Serialize: func(attrs Attrs, cm *ClassMapping) DOMSpec {
				level := min(max(attrs.Int("level", 1), 1), 6)
				return DOMSpec{Tag: "h" + strconv.Itoa(level), Attrs: cm.apply(nil, NodeHeading), ContentSlot: true}
			},
			ParseRules: []ParseRule{
				{Tag: "h1", Attrs: Attrs{"level": 1.0}},
				{Tag: "h2", Attrs: Attrs{"level": 2.0}},
				{Tag: "h3", Attrs: Attrs{"level": 3.0}},
				{Tag: "h4", Attrs: Attrs{"level": 4.0}},
				{Tag: "h5", Attrs: Attrs{"level": 5.0}},
				{Tag: "h6", Attrs: Attrs{"level": 6.0}},
			},
		},
		{
			Kind:     KindNode,
			Name:     NodeBlockquote,
			Content:  "block+",
			Group:    GroupBlock,
			Defining: true,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "blockquote", Attrs: cm.apply(nil, NodeBlockquote), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "blockquote"}},
		},
		{
			Kind:  KindNode,
			Name:  NodeHorizontalRule,
			Group: GroupBlock,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "hr", Attrs: cm.apply(nil, NodeHorizontalRule)}
			},
			ParseRules: []ParseRule{{Tag: "hr"}},
		},
		{
			Kind:     KindNode,
			Name:     NodeCodeBlock,
			Content:  "text*",
			Group:    GroupBlock,
			Code:     true,
			Defining: true,
			Marks:    marksExpr(""),
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				// inner element renders like the code mark
				code := DOMSpec{Tag: "code", Attrs: cm.apply(nil, MarkCode), ContentSlot: true}
				return DOMSpec{Tag: "pre", Attrs: cm.apply(Attrs{"spellcheck": false}, NodeCodeBlock), Inner: &code}
			},
			ParseRules: []ParseRule{{Tag: "pre", PreserveWhitespace: true}},
		},
		{
			Kind:         KindNode,
			Name:         NodeHardBreak,
			Group:        GroupInline,
			Inline:       true,
			Unselectable: true,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "br", Attrs: cm.apply(nil, NodeHardBreak)}
			},
			ParseRules: []ParseRule{{Tag: "br"}},
		},
		{
			Kind:      KindNode,
			Name:      NodeImage,
			Group:     GroupInline,
			Inline:    true,
			Draggable: true,
			Attrs: map[string]AttributeSpec{
				"src":     {Required: true, Validate: "string"},
				"alt":     {Default: "", Validate: "string|null"},
				"title":   {Default: nil, Validate: "string|null"},
				"imageId": {Default: nil, Validate: "string|null"},
				"caption": {Default: nil, Validate: "string|null"},
			},
			Serialize: func(attrs Attrs, cm *ClassMapping) DOMSpec {
				base := nonNil(Attrs{
					"src":           attrs["src"],
					"alt":           attrs["alt"],
					"title":         attrs["title"],
					"data-image-id": attrs["imageId"],
					"data-caption":  attrs["caption"],
				})
				return DOMSpec{Tag: "img", Attrs: cm.apply(base, NodeImage)}
			},
			ParseRules: []ParseRule{{
				Tag: "img[src]",
				GetAttrs: func(el Element) (Attrs, bool) {
					src, _ := el.Attr("src")
					alt, _ := el.Attr("alt")
					return Attrs{
						"src":     src,
						"alt":     alt,
						"title":   optionalAttr(el, "title"),
						"imageId": optionalAttr(el, "data-image-id"),
						"caption": optionalAttr(el, "data-caption"),
					}, true
				},
			}},
		},
		{
			Kind:    KindNode,
			Name:    NodeBulletList,
			Content: NodeListItem + "+",
			Group:   GroupBlock,
			Implies: []string{NodeListItem},
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "ul", Attrs: cm.apply(nil, NodeBulletList), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "ul"}},
		},
		{
			Kind:    KindNode,
			Name:    NodeOrderedList,
			Content: NodeListItem + "+",
			Group:   GroupBlock,
			Implies: []string{NodeListItem},
			Attrs: map[string]AttributeSpec{
				"order": {Default: 1.0, Validate: "number"},
			},
			Serialize: func(attrs Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "ol", Attrs: cm.apply(Attrs{"start": attrs["order"]}, NodeOrderedList), ContentSlot: true}
			},
			ParseRules: []ParseRule{{
				Tag: "ol",
				GetAttrs: func(el Element) (Attrs, bool) {
					order := 1.0
					if s, ok := el.Attr("start"); ok {
						if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
							order = n
						}
					}
					return Attrs{"order": order}, true
				},
			}},
		},
		{
			Kind:     KindNode,
			Name:     NodeListItem,
			Content:  NodeParagraph + " " + GroupBlock + "*",
			Defining: true,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "li", Attrs: cm.apply(nil, NodeListItem), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "li"}},
		},
		{
			Kind:      KindNode,
			Name:      NodeTable,
			Content:   NodeTableRow + "+",
			Group:     GroupBlock,
			Isolating: true,
			TableRole: TableRoleTable,
			Implies:   []string{NodeTableRow, NodeTableCell, NodeTableHeader},
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "table", Attrs: cm.apply(nil, NodeTable), Inner: &DOMSpec{Tag: "tbody", ContentSlot: true}}
			},
			ParseRules: []ParseRule{{Tag: "table"}},
		},
		{
			Kind:      KindNode,
			Name:      NodeTableRow,
			Content:   "(" + NodeTableCell + " | " + NodeTableHeader + ")*",
			TableRole: TableRoleRow,
			Serialize: func(_ Attrs, cm *ClassMapping) DOMSpec {
				return DOMSpec{Tag: "tr", Attrs: cm.apply(nil, NodeTableRow), ContentSlot: true}
			},
			ParseRules: []ParseRule{{Tag: "tr"}},
		},
		cellDefinition(NodeTableCell, "td", TableRoleCell),
		cellDefinition(NodeTableHeader, "th", TableRoleHeaderCell),
	}
}

func cellDefinition(name, tag string, role TableRole) TypeDefinition {
	return TypeDefinition{
		Kind:      KindNode,
		Name:      name,
		Content:   GroupBlock + "+",
		Isolating: true,
		TableRole: role,
		Attrs: map[string]AttributeSpec{
			"colspan":  {Default: 1.0, Validate: "number"},
			"rowspan":  {Default: 1.0, Validate: "number"},
			"colwidth": {Default: nil, Validate: "array|null"},
		},
		Serialize: func(attrs Attrs, cm *ClassMapping) DOMSpec {
			return DOMSpec{Tag: tag, Attrs: cm.apply(cellDOMAttrs(attrs), name), ContentSlot: true}
		},
		ParseRules: []ParseRule{{Tag: tag, GetAttrs: cellAttrs}},
	}
}

func cellDOMAttrs(attrs Attrs) Attrs {
	res := Attrs{}
	if span := attrs.Int("colspan", 1); span != 1 {
		res["colspan"] = float64(span)
	}
	if span := attrs.Int("rowspan", 1); span != 1 {
		res["rowspan"] = float64(span)
	}
	if widths, ok := attrs["colwidth"].([]any); ok && len(widths) > 0 {
		res["data-colwidth"] = widths
	}
	return res
}

func cellAttrs(el Element) (Attrs, bool) {
	colspan := numericAttr(el, "colspan", 1)
	res := Attrs{
		"colspan":  colspan,
		"rowspan":  numericAttr(el, "rowspan", 1),
		"colwidth": nil,
	}
	if s, ok := el.Attr("data-colwidth"); ok && colwidthRe.MatchString(s) {
		parts := strings.Split(s, ",")
		if len(parts) == int(colspan) {
			widths := make([]any, 0, len(parts))
			for _, part := range parts {
				n, _ := strconv.ParseFloat(part, 64)
				widths = append(widths, n)
			}
			res["colwidth"] = widths
		}
	}
	return res, true
}

func numericAttr(el Element, name string, def float64) float64 {
	s, ok := el.Attr(name)
	if !ok {
		return def
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return n
}

func optionalAttr(el Element, name string) any {
	if s, ok := el.Attr(name); ok {
		return s
	}
	return nil
}

func nonNil(attrs Attrs) Attrs {
	for k, v := range attrs {
		if v == nil {
			delete(attrs, k)
		}
	}
	return attrs
}
