package editor

import (
	"bytes"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"prosekit/document"
	"prosekit/selection"
)

// EditorClass is the class of element holding rendered document.
const EditorClass = "ProseMirror"

// PluginView observes view updates. Update is called synchronously after
// every state change with the state before the change, prev is nil on the
// first call after mounting. Destroy is called once when view is torn
// down.
type PluginView interface {
	Update(v *View, prev *State)
	Destroy()
}

// Plugin creates plugin view for a view.
type Plugin func(v *View) PluginView

// View holds current state, focus and a DOM surface: an HTML document whose
// body contains the editor element with rendered content. Plugins may
// append their own elements to the body.
type View struct {
	state      *State
	focused    bool
	destroyed  bool
	root       *html.Node
	body       *html.Node
	editor     *html.Node
	plugins    []PluginView
	serializer *document.Serializer
	log        *zap.Logger
}

// NewView creates view, mounts plugins and delivers the initial update.
func NewView(st *State, log *zap.Logger, plugins ...Plugin) *View {
	if log == nil {
		log = zap.NewNop()
	}
	v := &View{
		state:      st,
		serializer: document.NewSerializer(st.Schema, log),
		log:        log.Named("view"),
	}
	v.createDOM()
	v.render()
	for _, p := range plugins {
		if pv := p(v); pv != nil {
			v.plugins = append(v.plugins, pv)
		}
	}
	v.updatePlugins(nil)
	return v
}

func (v *View) createDOM() {
	v.root = &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	v.body = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	v.editor = &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: EditorClass},
			{Key: "contenteditable", Val: "true"},
		},
	}
	v.root.AppendChild(htmlEl)
	htmlEl.AppendChild(v.body)
	v.body.AppendChild(v.editor)
}

// render replaces content of the editor element with rendered document.
func (v *View) render() {
	for c := v.editor.FirstChild; c != nil; c = v.editor.FirstChild {
		v.editor.RemoveChild(c)
	}
	out, err := v.serializer.ToHTML(v.state.Doc)
	if err != nil {
		v.log.Warn("Unable to render document", zap.Error(err))
		return
	}
	nodes, err := html.ParseFragment(strings.NewReader(out), v.editor)
	if err != nil {
		v.log.Warn("Unable to parse rendered document", zap.Error(err))
		return
	}
	for _, n := range nodes {
		v.editor.AppendChild(n)
	}
}

// State returns current state.
func (v *View) State() *State {
	return v.state
}

// Dispatch applies transaction and delivers update to plugins. Invalid
// transactions are logged and dropped.
func (v *View) Dispatch(tr *Transaction) {
	next, err := v.state.Apply(tr)
	if err != nil {
		v.log.Warn("Transaction rejected", zap.Error(err))
		return
	}
	v.UpdateState(next)
}

// UpdateState replaces state and delivers update to plugins.
func (v *View) UpdateState(st *State) {
	if v.destroyed || st == v.state {
		return
	}
	prev := v.state
	v.state = st
	if prev.Doc != st.Doc {
		v.render()
	}
	v.updatePlugins(prev)
}

// Focus gives view input focus, plugins see an update with unchanged
// state.
func (v *View) Focus() {
	if v.destroyed || v.focused {
		return
	}
	v.focused = true
	v.updatePlugins(v.state)
}

// Blur removes input focus.
func (v *View) Blur() {
	if v.destroyed || !v.focused {
		return
	}
	v.focused = false
	v.updatePlugins(v.state)
}

func (v *View) Focused() bool {
	return v.focused
}

func (v *View) updatePlugins(prev *State) {
	for _, p := range v.plugins {
		p.Update(v, prev)
	}
}

// Body returns body element of DOM surface.
func (v *View) Body() *html.Node {
	return v.body
}

// EditorDOM returns element holding rendered document.
func (v *View) EditorDOM() *html.Node {
	return v.editor
}

// HTML renders whole DOM surface.
func (v *View) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, v.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TypeText handles text typed over text selection. Plugin views
// implementing TextInputHandler may take it over, otherwise it replaces
// selected text.
func (v *View) TypeText(text string) bool {
	sel, ok := v.state.Selection.(selection.TextSelection)
	if v.destroyed || text == "" || !ok {
		return false
	}
	from, to := selection.From(sel), selection.To(sel)
	for _, p := range v.plugins {
		if h, ok := p.(TextInputHandler); ok && h.HandleTextInput(v, from, to, text) {
			return true
		}
	}
	return InsertText(text)(v.state, v.Dispatch)
}

// KeyDown offers key press to plugin views implementing KeyHandler and
// reports whether one of them handled it.
func (v *View) KeyDown(key string) bool {
	if v.destroyed {
		return false
	}
	for _, p := range v.plugins {
		if h, ok := p.(KeyHandler); ok && h.HandleKeyDown(v, key) {
			return true
		}
	}
	return false
}

// Destroy tears down plugins, calling it again has no effect.
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	for _, p := range v.plugins {
		p.Destroy()
	}
	v.plugins = nil
}

// Destroyed reports whether view was torn down.
func (v *View) Destroyed() bool {
	return v.destroyed
}
