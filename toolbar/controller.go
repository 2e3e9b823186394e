// Package toolbar shows contextual floating toolbars in sync with editor
// selection. A Controller decides when toolbar for a feature is mounted,
// a Host (normally Renderer) builds and tears the toolbar down.
package toolbar

import (
	"fmt"

	"go.uber.org/zap"

	"prosekit/document"
	"prosekit/editor"
	"prosekit/selection"
)

// Feature names contextual toolbar kind.
type Feature string

const (
	FeatureMenubar Feature = "menubar"
	FeatureImage   Feature = "image"
	FeatureTable   Feature = "table"
)

// Phase is toolbar instance lifecycle phase.
type Phase int

const (
	Mounted Phase = iota
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Mounted:
		return "mounted"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Toolbar is mounted toolbar owned by a controller.
type Toolbar interface {
	// Update refreshes toolbar for current view state.
	Update(v *editor.View)
	// Destroy removes toolbar, calling it again has no effect.
	Destroy()
}

// Host creates toolbars. It is handed to controllers at construction.
type Host interface {
	CreateToolbar(v *editor.View, feature Feature, target *document.Node, items []MenuItem) (Toolbar, error)
}

// RenderError is a failure to evaluate or render a toolbar. It never leaves
// controller, it is logged and toolbar is hidden.
type RenderError struct {
	Feature Feature
	Stage   string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s toolbar: unable to %s: %v", e.Feature, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options instantiate controller for a feature.
type Options struct {
	Feature Feature
	// Show is the feature predicate.
	Show func(v *editor.View) bool
	// Target resolves node toolbar is bound to, nil when there is none.
	Target func(st *editor.State) *document.Node
	// Secondary returns values which force re-evaluation when they change
	// even if selection stays the same.
	Secondary func(st *editor.State) []bool
	Menu      MenuFunc
}

// Controller keeps at most one toolbar of its feature mounted. It is
// Hidden when toolbar is nil and Visible otherwise.
type Controller struct {
	opts    Options
	host    Host
	watcher Watcher
	target  *document.Node
	toolbar Toolbar
	log     *zap.Logger
}

func NewController(host Host, opts Options, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		opts: opts,
		host: host,
		log:  log.Named("toolbar").With(zap.String("feature", string(opts.Feature))),
	}
}

// Plugin returns plugin attaching controller to a view.
func (c *Controller) Plugin() editor.Plugin {
	return func(*editor.View) editor.PluginView { return c }
}

// Feature returns feature controller shows toolbar for.
func (c *Controller) Feature() Feature {
	return c.opts.Feature
}

// Visible reports whether toolbar is mounted.
func (c *Controller) Visible() bool {
	return c.toolbar != nil
}

// Target returns node mounted toolbar is bound to.
func (c *Controller) Target() *document.Node {
	return c.target
}

// Toolbar returns mounted toolbar or nil.
func (c *Controller) Toolbar() Toolbar {
	return c.toolbar
}

// Update evaluates controller after view update. View focus is always
// watched as secondary value since it takes part in feature predicates.
func (c *Controller) Update(v *editor.View, prev *editor.State) {
	stage := "evaluate"
	defer func() {
		if r := recover(); r != nil {
			c.fail(&RenderError{Feature: c.opts.Feature, Stage: stage, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	st := v.State()
	secondary := []bool{v.Focused()}
	if c.opts.Secondary != nil {
		secondary = append(secondary, c.opts.Secondary(st)...)
	}
	var prevSel selection.Selection
	if prev != nil {
		prevSel = prev.Selection
	}
	if !c.watcher.Observe(prevSel, st.Selection, secondary) {
		return
	}

	show := c.opts.Show(v)
	var target *document.Node
	if show {
		stage = "resolve target"
		target = c.opts.Target(st)
	}
	if c.toolbar != nil && (!show || target != c.target) {
		c.hide()
	}

	if c.toolbar != nil {
		stage = "update"
		c.toolbar.Update(v)
		return
	}
	if !show || target == nil {
		return
	}

	stage = "create"
	var items []MenuItem
	if c.opts.Menu != nil {
		items = c.opts.Menu(v, target)
	}
	tb, err := c.host.CreateToolbar(v, c.opts.Feature, target, items)
	if err == nil && tb == nil {
		err = fmt.Errorf("host returned no toolbar")
	}
	if err != nil {
		c.fail(&RenderError{Feature: c.opts.Feature, Stage: stage, Err: err})
		return
	}
	c.toolbar, c.target = tb, target
	c.log.Debug("Toolbar shown")
}

// Destroy hides toolbar when view is torn down, it may be called any number
// of times.
func (c *Controller) Destroy() {
	c.hide()
	c.watcher.Reset()
}

func (c *Controller) hide() {
	tb := c.toolbar
	c.toolbar, c.target = nil, nil
	if tb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Unable to destroy toolbar", zap.Any("panic", r))
		}
	}()
	tb.Destroy()
	c.log.Debug("Toolbar hidden")
}

func (c *Controller) fail(err *RenderError) {
	c.log.Error("Toolbar failed", zap.String("stage", err.Stage), zap.Error(err))
	c.hide()
	c.watcher.Reset()
}
