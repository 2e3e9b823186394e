package toolbar

import (
	"go.uber.org/zap"

	"prosekit/document"
	"prosekit/editor"
	"prosekit/schema"
	"prosekit/selection"
)

// SelectedImage returns image selected by node selection.
func SelectedImage(st *editor.State) *document.Node {
	if n := selection.NodeOf(st.Selection); n != nil && n.Type == schema.NodeImage {
		return n
	}
	return nil
}

// ImageSelected reports whether focused view selects exactly one image.
func ImageSelected(v *editor.View) bool {
	return v.Focused() && SelectedImage(v.State()) != nil
}

// SelectedTable returns table selection lies in or selects.
func SelectedTable(st *editor.State) *document.Node {
	if tbl := selection.FindTable(st.Doc, st.Selection); tbl != nil {
		return tbl.Node
	}
	return nil
}

// InsideTable reports whether selection of focused view lies in a table.
func InsideTable(v *editor.View) bool {
	st := v.State()
	return v.Focused() && selection.IsInTable(st.Doc, st.Selection)
}

// HeaderFlags reports header state of the first row and the first column
// of selected cells.
func HeaderFlags(st *editor.State) []bool {
	row, column := selection.HeaderState(st.Doc, st.Selection)
	return []bool{row, column}
}

// NewImageController returns controller of image toolbar.
func NewImageController(host Host, menu MenuFunc, log *zap.Logger) *Controller {
	return NewController(host, Options{
		Feature: FeatureImage,
		Show:    ImageSelected,
		Target:  SelectedImage,
		Menu:    menu,
	}, log)
}

// NewTableController returns controller of table toolbar, nil menu means
// TableMenu.
func NewTableController(host Host, menu MenuFunc, log *zap.Logger) *Controller {
	if menu == nil {
		menu = TableMenu
	}
	return NewController(host, Options{
		Feature:   FeatureTable,
		Show:      InsideTable,
		Target:    SelectedTable,
		Secondary: HeaderFlags,
		Menu:      menu,
	}, log)
}

// Menus are menus of toolbars Controllers sets up. Nil Image menu means
// ImageMenu without commands, nil Table menu means TableMenu and nil
// Menubar leaves menubar out.
type Menus struct {
	Menubar MenuFunc
	Image   MenuFunc
	Table   MenuFunc
}

// Controllers returns controllers of the menubar and of contextual toolbars
// for features present in schema, menubar first.
func Controllers(s *schema.Schema, host Host, menus Menus, log *zap.Logger) []*Controller {
	var cs []*Controller
	if menus.Menubar != nil {
		cs = append(cs, NewMenubarController(host, menus.Menubar, log))
	}
	if s.HasNode(schema.NodeImage) {
		image := menus.Image
		if image == nil {
			image = ImageMenu(nil, nil)
		}
		cs = append(cs, NewImageController(host, image, log))
	}
	if s.Capabilities().TableEditing {
		cs = append(cs, NewTableController(host, menus.Table, log))
	}
	return cs
}

// Plugins returns plugins attaching controllers to a view.
func Plugins(cs []*Controller) []editor.Plugin {
	plugins := make([]editor.Plugin, 0, len(cs))
	for _, c := range cs {
		plugins = append(plugins, c.Plugin())
	}
	return plugins
}
