package editor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"prosekit/schema"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModNone Modifier = 0

	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String returns modifiers in the order they appear in normalized key
// names, every one followed by a dash.
func (m Modifier) String() string {
	var sb strings.Builder
	for _, mod := range []struct {
		m    Modifier
		name string
	}{{ModAlt, "Alt"}, {ModCtrl, "Ctrl"}, {ModMeta, "Meta"}, {ModShift, "Shift"}} {
		if m.Has(mod.m) {
			sb.WriteString(mod.name)
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Mod stands for Ctrl as on every platform but macOS.
var modifierNames = map[string]Modifier{
	"alt":     ModAlt,
	"a":       ModAlt,
	"option":  ModAlt,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"c":       ModCtrl,
	"mod":     ModCtrl,
	"shift":   ModShift,
	"s":       ModShift,
	"meta":    ModMeta,
	"m":       ModMeta,
	"cmd":     ModMeta,
}

// ParseKey splits key name such as "Mod-Shift-z" or "Ctrl--" into
// modifiers and the key itself.
func ParseKey(name string) (Modifier, string, error) {
	var rest, key string
	if strings.HasSuffix(name, "-") {
		key = "-"
		rest = strings.TrimSuffix(strings.TrimSuffix(name, "-"), "-")
	} else if i := strings.LastIndex(name, "-"); i >= 0 {
		rest, key = name[:i], name[i+1:]
	} else {
		key = name
	}
	if key == "" {
		return ModNone, "", fmt.Errorf("key name %q has no key", name)
	}
	if key == "Space" {
		key = " "
	}
	var mods Modifier
	for part := range strings.SplitSeq(rest, "-") {
		if part == "" {
			continue
		}
		mod, ok := modifierNames[strings.ToLower(part)]
		if !ok {
			return ModNone, "", fmt.Errorf("unrecognized modifier name %q in %q", part, name)
		}
		mods |= mod
	}
	return mods, key, nil
}

// NormalizeKey returns key name in the form bindings are looked up with.
func NormalizeKey(name string) (string, error) {
	mods, key, err := ParseKey(name)
	if err != nil {
		return "", err
	}
	return mods.String() + key, nil
}

// KeyHandler is implemented by plugin views which handle key presses.
type KeyHandler interface {
	HandleKeyDown(v *View, key string) bool
}

type keymapView struct {
	bindings map[string]Command
}

// Keymap creates plugin running commands bound to key names. Shifted
// characters without a binding of their own fall back to the binding
// without Shift.
func Keymap(bindings map[string]Command) (Plugin, error) {
	normalized := make(map[string]Command, len(bindings))
	for name, cmd := range bindings {
		key, err := NormalizeKey(name)
		if err != nil {
			return nil, err
		}
		normalized[key] = cmd
	}
	return func(*View) PluginView {
		return &keymapView{bindings: normalized}
	}, nil
}

func (k *keymapView) Update(*View, *State) {}
func (k *keymapView) Destroy()             {}

func (k *keymapView) HandleKeyDown(v *View, name string) bool {
	mods, key, err := ParseKey(name)
	if err != nil {
		return false
	}
	if cmd := k.bindings[mods.String()+key]; cmd != nil && cmd(v.State(), v.Dispatch) {
		return true
	}
	if mods.Has(ModShift) && utf8.RuneCountInString(key) == 1 {
		if cmd := k.bindings[(mods&^ModShift).String()+key]; cmd != nil && cmd(v.State(), v.Dispatch) {
			return true
		}
	}
	return false
}

// DefaultKeys returns bindings for marks and nodes schema has.
func DefaultKeys(s *schema.Schema) map[string]Command {
	keys := map[string]Command{
		"Alt-ArrowUp": JoinUp,
		"Mod-[":       Lift,
		"Escape":      SelectParentNode,
	}
	for key, mark := range map[string]string{
		"Mod-b": schema.MarkStrong,
		"Mod-i": schema.MarkEm,
		"Mod-`": schema.MarkCode,
		"Mod-u": schema.MarkUnderline,
	} {
		if s.HasMark(mark) {
			keys[key] = ToggleMark(mark, nil)
		}
	}
	if s.HasNode(schema.NodeListItem) {
		if s.HasNode(schema.NodeBulletList) {
			keys["Shift-Ctrl-8"] = WrapInList(schema.NodeBulletList, nil)
		}
		if s.HasNode(schema.NodeOrderedList) {
			keys["Shift-Ctrl-9"] = WrapInList(schema.NodeOrderedList, nil)
		}
	}
	if s.HasNode(schema.NodeBlockquote) {
		keys["Ctrl->"] = Wrap(schema.NodeBlockquote, nil)
	}
	if s.HasNode(schema.NodeHardBreak) {
		br := InsertNode(schema.NodeHardBreak, nil)
		keys["Mod-Enter"] = br
		keys["Shift-Enter"] = br
	}
	keys["Shift-Ctrl-0"] = SetBlockType(schema.NodeParagraph, nil)
	if s.HasNode(schema.NodeCodeBlock) {
		keys["Shift-Ctrl-\\"] = SetBlockType(schema.NodeCodeBlock, nil)
	}
	if s.HasNode(schema.NodeHeading) {
		for level := 1; level <= 6; level++ {
			keys["Shift-Ctrl-"+strconv.Itoa(level)] = SetBlockType(schema.NodeHeading, schema.Attrs{"level": float64(level)})
		}
	}
	if s.HasNode(schema.NodeHorizontalRule) {
		keys["Mod-_"] = InsertNode(schema.NodeHorizontalRule, nil)
	}
	if s.HasNode(schema.NodeImage) {
		del := DeleteSelectedNode(schema.NodeImage)
		keys["Delete"] = del
		keys["Backspace"] = del
	}
	return keys
}
