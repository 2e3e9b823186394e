// Package session drives editor from command line: a view over a document
// with menubar and toolbars of every feature schema supports mounted into
// it.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"prosekit/document"
	"prosekit/editor"
	"prosekit/state"
	"prosekit/toolbar"
	"prosekit/upload"
)

// Session is an editor view with menubar, toolbar controllers, input
// rules and default key bindings attached.
type Session struct {
	View        *editor.View
	controllers []*toolbar.Controller
	log         *zap.Logger
}

// New creates focused view for doc. Picker is asked for a file when image
// is inserted or replaced, nil disables both.
func New(ctx context.Context, env *state.LocalEnv, doc *document.Node, pick upload.Picker) (*Session, error) {
	s, err := env.Schema()
	if err != nil {
		return nil, err
	}
	st, err := editor.NewState(s, doc, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create editor state: %w", err)
	}

	log := env.Log.Named("session")
	r := toolbar.NewRenderer(toolbar.DefaultIcons, env.Translator().Func(), log)

	var insert, replace editor.Command
	if pick != nil {
		transport := env.Uploads().Transport()
		insert = toolbar.InsertImage(ctx, transport, pick, log)
		replace = toolbar.ReplaceImage(ctx, transport, pick, log)
	}

	ses := &Session{log: log}
	ses.controllers = toolbar.Controllers(s, r, toolbar.Menus{
		Menubar: toolbar.Menubar(s, toolbar.MenubarOptions{InsertImage: insert}),
		Image:   toolbar.ImageMenu(nil, replace),
	}, log)

	keys, err := editor.Keymap(editor.DefaultKeys(s))
	if err != nil {
		return nil, fmt.Errorf("unable to set up key bindings: %w", err)
	}
	plugins := append(toolbar.Plugins(ses.controllers), editor.InputRules(editor.DefaultInputRules(s)...), keys)
	ses.View = editor.NewView(st, log, plugins...)
	ses.View.Focus()
	return ses, nil
}

// Select moves selection to pos: node selection when node is set, cursor
// otherwise.
func (ses *Session) Select(pos int, node bool) error {
	cmd := editor.SetCursor(pos)
	if node {
		cmd = editor.SelectNodeAt(pos)
	}
	if !cmd(ses.View.State(), ses.View.Dispatch) {
		return fmt.Errorf("unable to select position %d", pos)
	}
	return nil
}

func (ses *Session) mounted(menubar bool) *toolbar.Instance {
	for _, c := range ses.controllers {
		if (c.Feature() == toolbar.FeatureMenubar) != menubar {
			continue
		}
		if in, ok := c.Toolbar().(*toolbar.Instance); ok {
			return in
		}
	}
	return nil
}

// Toolbar returns mounted contextual toolbar, nil when selection shows
// none.
func (ses *Session) Toolbar() *toolbar.Instance {
	return ses.mounted(false)
}

// Menubar returns mounted menubar.
func (ses *Session) Menubar() *toolbar.Instance {
	return ses.mounted(true)
}

func (ses *Session) click(in *toolbar.Instance, what string, index int) error {
	if in == nil {
		return fmt.Errorf("no %s is shown for selection", what)
	}
	if index < 0 || index >= in.Actions() {
		return fmt.Errorf("%s %s has no entry %d (%d available)", in.Feature, what, index, in.Actions())
	}
	if !in.Click(index) {
		return fmt.Errorf("%s %s entry %d did not run", in.Feature, what, index)
	}
	ses.log.Debug("Entry clicked", zap.String("feature", string(in.Feature)), zap.Int("index", index))
	return nil
}

// Click runs contextual toolbar entry at index.
func (ses *Session) Click(index int) error {
	return ses.click(ses.Toolbar(), "toolbar", index)
}

// MenuClick runs menubar entry at index.
func (ses *Session) MenuClick(index int) error {
	return ses.click(ses.Menubar(), "menubar", index)
}

// Type types text at selection one character at a time so input rules see
// it as typed.
func (ses *Session) Type(text string) error {
	for _, r := range text {
		if !ses.View.TypeText(string(r)) {
			return fmt.Errorf("unable to type %q at selection", r)
		}
	}
	return nil
}

// Key presses key such as "Mod-b" or "Shift-Ctrl-1".
func (ses *Session) Key(name string) error {
	if _, err := editor.NormalizeKey(name); err != nil {
		return err
	}
	if !ses.View.KeyDown(name) {
		return fmt.Errorf("key %s is not handled at selection", name)
	}
	return nil
}

// Doc returns current document.
func (ses *Session) Doc() *document.Node {
	return ses.View.State().Doc
}

// Close tears view and toolbars down.
func (ses *Session) Close() {
	ses.View.Destroy()
}
