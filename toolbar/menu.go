package toolbar

import (
	"context"

	"go.uber.org/zap"

	"prosekit/document"
	"prosekit/editor"
	"prosekit/selection"
	"prosekit/upload"
)

// MenuItem is a toolbar button or, when Items is not empty, a dropdown.
// Title and Label are translation keys, dropdown entries show Label when it
// is set and Title otherwise.
type MenuItem struct {
	Icon    string
	Title   string
	Label   string
	Command editor.Command
	// IsActive marks button as active.
	IsActive func(v *editor.View) bool
	// Enabled decides whether button is enabled, buttons without it are
	// always enabled. Dropdown entries are enabled when their Command is.
	Enabled editor.Command
	Items   []MenuItem
}

// MenuFunc builds menu for toolbar bound to target.
type MenuFunc func(v *editor.View, target *document.Node) []MenuItem

func headerRowActive(v *editor.View) bool {
	st := v.State()
	row, _ := selection.HeaderState(st.Doc, st.Selection)
	return row
}

func headerColumnActive(v *editor.View) bool {
	st := v.State()
	_, column := selection.HeaderState(st.Doc, st.Selection)
	return column
}

// TableMenu is the default table toolbar menu.
func TableMenu(*editor.View, *document.Node) []MenuItem {
	return []MenuItem{
		{
			Icon:  "rowDropdown",
			Title: "Row operations",
			Items: []MenuItem{
				{Icon: "addRowBefore", Title: "Add row before", Command: editor.AddRowBefore},
				{Icon: "addRowAfter", Title: "Add row after", Command: editor.AddRowAfter},
				{Icon: "deleteRow", Title: "Delete row", Command: editor.DeleteRow},
				{Icon: "headerRow", Title: "Toggle header row", Command: editor.ToggleHeaderRow, IsActive: headerRowActive},
			},
		},
		{
			Icon:  "columnDropdown",
			Title: "Column operations",
			Items: []MenuItem{
				{Icon: "addColumnBefore", Title: "Add column before", Command: editor.AddColumnBefore},
				{Icon: "addColumnAfter", Title: "Add column after", Command: editor.AddColumnAfter},
				{Icon: "deleteColumn", Title: "Delete column", Command: editor.DeleteColumn},
				{Icon: "headerColumn", Title: "Toggle header column", Command: editor.ToggleHeaderColumn, IsActive: headerColumnActive},
			},
		},
		{
			Icon:  "cellDropdown",
			Title: "Cell operations",
			Items: []MenuItem{
				{Icon: "mergeCells", Title: "Merge cells", Command: editor.MergeCells},
				{Icon: "splitCell", Title: "Split cell", Command: editor.SplitCell},
			},
		},
		{Icon: "deleteTable", Title: "Delete table", Command: editor.DeleteTable},
	}
}

// ReplaceImage asks picker for a file, uploads it and points selected image
// to the stored asset. It needs dispatch to do anything.
func ReplaceImage(ctx context.Context, transport upload.Transport, pick upload.Picker, log *zap.Logger) editor.Command {
	if log == nil {
		log = zap.NewNop()
	}
	return func(st *editor.State, dispatch func(tr *editor.Transaction)) bool {
		if dispatch == nil || transport == nil || pick == nil {
			return false
		}
		f, ok := pick()
		if !ok {
			return true
		}
		asset, err := transport(ctx, f)
		if err != nil {
			log.Warn("Unable to upload image", zap.String("file", f.Name), zap.Error(err))
			return false
		}
		tr := st.Tr()
		if err := tr.SetNodeAttrs(selection.From(st.Selection), asset.Attrs()); err != nil {
			log.Warn("Unable to replace image", zap.String("src", asset.Src), zap.Error(err))
			return false
		}
		dispatch(tr)
		return true
	}
}

// ImageMenu returns the default image toolbar menu. Edit command is left to
// the host, nil means a command which is always enabled.
func ImageMenu(edit editor.Command, replace editor.Command) MenuFunc {
	if edit == nil {
		edit = editor.Always
	}
	return func(*editor.View, *document.Node) []MenuItem {
		return []MenuItem{
			{Icon: "link", Title: "Edit image", Command: edit},
			{Icon: "image", Title: "Replace image file", Command: replace},
		}
	}
}
