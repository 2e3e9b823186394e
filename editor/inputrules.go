package editor

import (
	"regexp"
	"strconv"
	"strings"

	"prosekit/document"
	"prosekit/schema"
)

// maxMatch limits text before the cursor input rules look at.
const maxMatch = 500

// InputRule reacts to typed text. Pattern is matched against text of the
// textblock before the cursor with the typed text appended and should end
// with $. Handler gets match and the document range it covers, typed text
// is not inserted when the handler applies.
type InputRule struct {
	Pattern *regexp.Regexp
	Handler func(tr *Transaction, match []string, start, end int) bool
}

// TextRule replaces matched text with replacement. When pattern has a
// group only text matched by the group is replaced.
func TextRule(pattern, replacement string) InputRule {
	return InputRule{
		Pattern: regexp.MustCompile(pattern),
		Handler: func(tr *Transaction, match []string, start, end int) bool {
			insert := replacement
			if len(match) > 1 && match[1] != "" {
				offset := strings.LastIndex(match[0], match[1])
				insert += match[0][offset+len(match[1]):]
				units := document.TextLen(match[0][:offset])
				start += units
				if cut := start - end; cut > 0 {
					head, _ := document.SplitText(match[0], units)
					_, kept := document.SplitText(head, units-cut)
					insert = kept + insert
					start = end
				}
			}
			return tr.insertText(insert, start, end)
		},
	}
}

// WrappingRule wraps textblock into node of type when its start matches.
// Lists go through list items. A list wrapper is joined with list of the
// same type right before it when join says so, nil join always joins.
func WrappingRule(pattern, typ string, attrs func(match []string) schema.Attrs, join func(match []string, before *document.Node) bool) InputRule {
	return InputRule{
		Pattern: regexp.MustCompile(pattern),
		Handler: func(tr *Transaction, match []string, start, end int) bool {
			if !tr.insertText("", start, end) {
				return false
			}
			var a schema.Attrs
			if attrs != nil {
				a = attrs(match)
			}
			var path []int
			if typ == schema.NodeBulletList || typ == schema.NodeOrderedList {
				path = tr.wrapInList(start, start, typ, a)
			} else {
				path = tr.wrap(start, start, typ, a)
			}
			if path == nil {
				return false
			}
			index := path[len(path)-1]
			if index == 0 {
				return true
			}
			parent, err := document.At(tr.doc, path[:len(path)-1])
			if err != nil {
				return true
			}
			before, wrapper := parent.Content[index-1], parent.Content[index]
			if !joinable(tr.base.Schema, before, wrapper) || (join != nil && !join(match, before)) {
				return true
			}
			joined := before.WithContent(append(append([]*document.Node{}, before.Content...), wrapper.Content...))
			if err := tr.Replace(path[:len(path)-1], func(n *document.Node) *document.Node {
				return n.WithContent(splice(n.Content, index-1, index+1, joined))
			}); err != nil {
				return false
			}
			tr.SetSelection(shift(tr.sel, -2))
			return true
		},
	}
}

// TextblockTypeRule changes textblock type when its start matches.
func TextblockTypeRule(pattern, typ string, attrs func(match []string) schema.Attrs) InputRule {
	return InputRule{
		Pattern: regexp.MustCompile(pattern),
		Handler: func(tr *Transaction, match []string, start, end int) bool {
			s := tr.base.Schema
			def, ok := s.Node(typ)
			if !ok || !tr.insertText("", start, end) {
				return false
			}
			var a schema.Attrs
			if attrs != nil {
				a = attrs(match)
			}
			doc, changed := setBlockType(s, tr.doc, start, start, def, def.DefaultAttrs(a))
			if !changed {
				return false
			}
			tr.SetDoc(doc)
			return true
		},
	}
}

// Typographic replacements.
var (
	Ellipsis         = TextRule(`\.\.\.$`, "…")
	EmDash           = TextRule(`--$`, "—")
	OpenDoubleQuote  = TextRule(`(?:^|[\s{\[(<'"\x{2018}\x{201C}])(")$`, "“")
	CloseDoubleQuote = TextRule(`"$`, "”")
	OpenSingleQuote  = TextRule(`(?:^|[\s{\[(<'"\x{2018}\x{201C}])(')$`, "‘")
	CloseSingleQuote = TextRule(`'$`, "’")
	SmartQuotes      = []InputRule{OpenDoubleQuote, CloseDoubleQuote, OpenSingleQuote, CloseSingleQuote}
)

func orderAttrs(match []string) schema.Attrs {
	n, _ := strconv.ParseFloat(match[1], 64)
	return schema.Attrs{"order": n}
}

// DefaultInputRules returns typographic rules together with markdown like
// shortcuts for block types schema has.
func DefaultInputRules(s *schema.Schema) []InputRule {
	rules := append(append([]InputRule{}, SmartQuotes...), Ellipsis, EmDash)
	if s.HasNode(schema.NodeBlockquote) {
		rules = append(rules, WrappingRule(`^\s*>\s$`, schema.NodeBlockquote, nil, nil))
	}
	if s.HasNode(schema.NodeOrderedList) && s.HasNode(schema.NodeListItem) {
		rules = append(rules, WrappingRule(`^(\d+)\.\s$`, schema.NodeOrderedList, orderAttrs,
			func(match []string, before *document.Node) bool {
				n, _ := strconv.Atoi(match[1])
				return before.ChildCount()+before.Attrs.Int("order", 1) == n
			}))
	}
	if s.HasNode(schema.NodeBulletList) && s.HasNode(schema.NodeListItem) {
		rules = append(rules, WrappingRule(`^\s*([-+*])\s$`, schema.NodeBulletList, nil, nil))
	}
	if s.HasNode(schema.NodeCodeBlock) {
		rules = append(rules, TextblockTypeRule("^```$", schema.NodeCodeBlock, nil))
	}
	if s.HasNode(schema.NodeHeading) {
		rules = append(rules, TextblockTypeRule(`^(#{1,6})\s$`, schema.NodeHeading, func(match []string) schema.Attrs {
			return schema.Attrs{"level": float64(len(match[1]))}
		}))
	}
	return rules
}

// TextInputHandler is implemented by plugin views which may take over text
// typed into the view.
type TextInputHandler interface {
	HandleTextInput(v *View, from, to int, text string) bool
}

type inputRulesView struct {
	rules []InputRule
}

// InputRules creates plugin running rules on typed text. Rules do not run
// in code textblocks.
func InputRules(rules ...InputRule) Plugin {
	return func(*View) PluginView {
		return &inputRulesView{rules: rules}
	}
}

func (p *inputRulesView) Update(*View, *State) {}
func (p *inputRulesView) Destroy()             {}

func (p *inputRulesView) HandleTextInput(v *View, from, to int, text string) bool {
	st := v.State()
	rp, err := document.Resolve(st.Doc, from)
	if err != nil {
		return false
	}
	parent := rp.Parent()
	def, ok := st.Schema.Node(parent.Type)
	if !ok || !def.IsTextblock() || def.Code {
		return false
	}
	offset := rp.ParentOffset
	before := document.TextBetween(parent, max(0, offset-maxMatch), offset, document.LeafText) + text
	for _, rule := range p.rules {
		match := rule.Pattern.FindStringSubmatch(before)
		if match == nil || document.TextLen(match[0]) < document.TextLen(text) {
			continue
		}
		tr := st.Tr()
		if !rule.Handler(tr, match, from-(document.TextLen(match[0])-document.TextLen(text)), to) {
			continue
		}
		v.Dispatch(tr)
		return true
	}
	return false
}
