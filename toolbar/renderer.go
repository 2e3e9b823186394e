package toolbar

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"prosekit/document"
	"prosekit/editor"
)

// Classes of toolbar elements.
const (
	ClassToolbar              = "generic-toolbar"
	ClassToolbarVisible       = ClassToolbar + "--visible"
	ClassButton               = ClassToolbar + "__button"
	ClassButtonActive         = ClassButton + "--active"
	ClassButtonDisabled       = ClassButton + "--disabled"
	ClassSeparator            = ClassToolbar + "__separator"
	ClassDropdown             = ClassToolbar + "__dropdown"
	ClassDropdownOpen         = ClassDropdown + "--open"
	ClassDropdownButton       = ClassToolbar + "__dropdown-button"
	ClassDropdownMenu         = ClassToolbar + "__dropdown-menu"
	ClassDropdownItem         = ClassToolbar + "__dropdown-item"
	ClassDropdownItemActive   = ClassDropdownItem + "--active"
	ClassDropdownItemDisabled = ClassDropdownItem + "--disabled"
)

// IconFunc returns SVG markup of named icon, empty string when there is
// no such icon.
type IconFunc func(name string) string

// Renderer builds toolbars into the DOM surface of a view.
type Renderer struct {
	icons     IconFunc
	translate func(key string) string
	log       *zap.Logger
}

// NewRenderer creates renderer, nil icons and translate functions render no
// icons and untranslated titles.
func NewRenderer(icons IconFunc, translate func(key string) string, log *zap.Logger) *Renderer {
	if icons == nil {
		icons = func(string) string { return "" }
	}
	if translate == nil {
		translate = func(key string) string { return key }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{icons: icons, translate: translate, log: log.Named("renderer")}
}

// listener binds clickable element to menu item.
type listener struct {
	item     *MenuItem
	el       *html.Node
	dropdown int // index of owning dropdown or -1
}

type dropdown struct {
	el   *html.Node
	open bool
}

// Instance is a mounted toolbar. Clickable elements carry data-action
// attribute with index accepted by Click, dropdown buttons carry
// data-dropdown with index accepted by ToggleDropdown.
type Instance struct {
	Feature   Feature
	Target    *document.Node
	Container *html.Node

	phase     Phase
	view      *editor.View
	listeners []listener
	dropdowns []*dropdown
	log       *zap.Logger
}

// CreateToolbar renders toolbar for target and mounts it into view body.
func (r *Renderer) CreateToolbar(v *editor.View, feature Feature, target *document.Node, items []MenuItem) (Toolbar, error) {
	return r.Create(v, feature, target, items)
}

// Create is CreateToolbar returning concrete instance.
func (r *Renderer) Create(v *editor.View, feature Feature, target *document.Node, items []MenuItem) (*Instance, error) {
	if v == nil || v.Destroyed() {
		return nil, fmt.Errorf("view is not available")
	}
	if target == nil {
		return nil, fmt.Errorf("no target to bind toolbar to")
	}
	in := &Instance{
		Feature: feature,
		Target:  target,
		Container: element(atom.Div,
			"class", ClassToolbar+" "+ClassToolbarVisible,
			"role", "toolbar",
			"data-feature", string(feature)),
		view: v,
		log:  r.log.With(zap.String("feature", string(feature))),
	}
	// items are kept by index, copy so caller changes do not leak in
	items = slices.Clone(items)
	for i := range items {
		if err := r.renderItem(in, &items[i]); err != nil {
			return nil, err
		}
	}
	v.Body().AppendChild(in.Container)
	in.Update(v)
	return in, nil
}

func (r *Renderer) renderItem(in *Instance, item *MenuItem) error {
	if len(item.Items) == 0 {
		btn := element(atom.Button, "type", "button", "class", ClassButton, "title", r.translate(item.Title))
		if err := r.appendIcon(btn, item.Icon); err != nil {
			return err
		}
		in.addListener(item, btn, -1)
		in.Container.AppendChild(btn)
		return nil
	}

	index := len(in.dropdowns)
	wrap := element(atom.Div, "class", ClassDropdown)
	btn := element(atom.Button,
		"type", "button",
		"class", ClassDropdownButton,
		"title", r.translate(item.Title),
		"aria-haspopup", "true",
		"aria-expanded", "false",
		"data-dropdown", strconv.Itoa(index))
	if err := r.appendIcon(btn, item.Icon); err != nil {
		return err
	}
	menu := element(atom.Div, "class", ClassDropdownMenu, "role", "menu")
	for i := range item.Items {
		sub := &item.Items[i]
		entry := element(atom.Button, "type", "button", "class", ClassDropdownItem, "role", "menuitem")
		text := sub.Title
		if sub.Label != "" {
			text = sub.Label
			setAttr(entry, "title", r.translate(sub.Title))
		}
		if err := r.appendIcon(entry, sub.Icon); err != nil {
			return err
		}
		label := element(atom.Span)
		label.AppendChild(&html.Node{Type: html.TextNode, Data: r.translate(text)})
		entry.AppendChild(label)
		in.addListener(sub, entry, index)
		menu.AppendChild(entry)
	}
	wrap.AppendChild(btn)
	wrap.AppendChild(menu)
	in.dropdowns = append(in.dropdowns, &dropdown{el: wrap})
	in.Container.AppendChild(wrap)
	in.Container.AppendChild(element(atom.Span, "class", ClassSeparator))
	return nil
}

func (r *Renderer) appendIcon(parent *html.Node, name string) error {
	if name == "" {
		return nil
	}
	setAttr(parent, "data-icon", name)
	markup := r.icons(name)
	if markup == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return fmt.Errorf("icon %q: %w", name, err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func (in *Instance) addListener(item *MenuItem, el *html.Node, dropdown int) {
	setAttr(el, "data-action", strconv.Itoa(len(in.listeners)))
	in.listeners = append(in.listeners, listener{item: item, el: el, dropdown: dropdown})
}

// Phase returns lifecycle phase of toolbar.
func (in *Instance) Phase() Phase {
	return in.phase
}

// Actions returns number of clickable entries.
func (in *Instance) Actions() int {
	return len(in.listeners)
}

// Update refreshes active and disabled state of every entry.
func (in *Instance) Update(v *editor.View) {
	if in.phase == Destroyed {
		return
	}
	in.view = v
	st := v.State()
	for _, l := range in.listeners {
		active := l.item.IsActive != nil && l.item.IsActive(v)
		enabled := true
		switch {
		case l.item.Enabled != nil:
			enabled = l.item.Enabled(st, nil)
		case l.dropdown >= 0 && l.item.Command != nil:
			enabled = l.item.Command(st, nil)
		}

		base, activeCls, disabledCls := ClassButton, ClassButtonActive, ClassButtonDisabled
		if l.dropdown >= 0 {
			base, activeCls, disabledCls = ClassDropdownItem, ClassDropdownItemActive, ClassDropdownItemDisabled
		}
		classes := []string{base}
		if active {
			classes = append(classes, activeCls)
		}
		if !enabled {
			classes = append(classes, disabledCls)
		}
		setAttr(l.el, "class", strings.Join(classes, " "))
		if enabled {
			removeAttr(l.el, "disabled")
		} else {
			setAttr(l.el, "disabled", "")
		}
	}
}

// ToggleDropdown opens dropdown closing any other open one.
func (in *Instance) ToggleDropdown(index int) {
	if in.phase == Destroyed || index < 0 || index >= len(in.dropdowns) {
		return
	}
	open := !in.dropdowns[index].open
	in.closeDropdowns()
	if open {
		in.setDropdown(index, true)
	}
}

// DropdownOpen reports whether dropdown is open.
func (in *Instance) DropdownOpen(index int) bool {
	return index >= 0 && index < len(in.dropdowns) && in.dropdowns[index].open
}

func (in *Instance) closeDropdowns() {
	for i := range in.dropdowns {
		in.setDropdown(i, false)
	}
}

func (in *Instance) setDropdown(index int, open bool) {
	d := in.dropdowns[index]
	d.open = open
	cls, expanded := ClassDropdown, "false"
	if open {
		cls, expanded = ClassDropdown+" "+ClassDropdownOpen, "true"
	}
	setAttr(d.el, "class", cls)
	if d.el.FirstChild != nil {
		setAttr(d.el.FirstChild, "aria-expanded", expanded)
	}
}

// Click runs command of entry at index and reports whether it ran.
// Disabled entries do nothing.
func (in *Instance) Click(index int) bool {
	if in.phase == Destroyed || index < 0 || index >= len(in.listeners) {
		return false
	}
	l := in.listeners[index]
	if l.item.Command == nil || hasAttr(l.el, "disabled") {
		return false
	}
	v := in.view
	in.closeDropdowns()
	ok := l.item.Command(v.State(), v.Dispatch)
	if ok {
		v.Focus()
	} else {
		in.log.Debug("Command did not run", zap.String("title", l.item.Title))
	}
	// command may have caused this toolbar to be destroyed
	if in.phase != Destroyed {
		in.Update(v)
	}
	return ok
}

// Destroy detaches listeners and removes container from DOM.
func (in *Instance) Destroy() {
	if in.phase == Destroyed {
		return
	}
	in.phase = Destroyed
	if p := in.Container.Parent; p != nil {
		p.RemoveChild(in.Container)
	}
	in.listeners = nil
	in.dropdowns = nil
	in.view = nil
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

func hasAttr(n *html.Node, key string) bool {
	return slices.ContainsFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}
