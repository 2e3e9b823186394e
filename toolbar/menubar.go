package toolbar

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"prosekit/document"
	"prosekit/editor"
	"prosekit/schema"
	"prosekit/upload"
)

// Size of table inserted from the menubar when options leave it out.
const (
	DefaultTableRows    = 3
	DefaultTableColumns = 3
)

// MenubarOptions tune the menubar. InsertImage is the command behind
// "Insert image", nil leaves the entry out.
type MenubarOptions struct {
	InsertImage  editor.Command
	TableRows    int
	TableColumns int
}

var menubarMarks = []struct {
	mark, icon, title string
}{
	{schema.MarkStrong, "strong", "Toggle strong style"},
	{schema.MarkEm, "em", "Toggle emphasis"},
	{schema.MarkUnderline, "underline", "Toggle underline"},
	{schema.MarkStrikethrough, "strikethrough", "Toggle strikethrough"},
	{schema.MarkCode, "code", "Toggle code font"},
}

func markItem(mark, icon, title string) MenuItem {
	cmd := editor.ToggleMark(mark, nil)
	return MenuItem{
		Icon:     icon,
		Title:    title,
		Command:  cmd,
		Enabled:  cmd,
		IsActive: func(v *editor.View) bool { return editor.MarkActive(v.State(), mark) },
	}
}

func blockTypeItem(icon, title, label, typ string, attrs schema.Attrs) MenuItem {
	return MenuItem{
		Icon:     icon,
		Title:    title,
		Label:    label,
		Command:  editor.SetBlockType(typ, attrs),
		IsActive: func(v *editor.View) bool { return editor.BlockActive(v.State(), typ, attrs) },
	}
}

func button(icon, title string, cmd editor.Command) MenuItem {
	return MenuItem{Icon: icon, Title: title, Command: cmd, Enabled: cmd}
}

// Menubar returns menu of the editor menubar with entries for marks and
// nodes schema has.
func Menubar(s *schema.Schema, opts MenubarOptions) MenuFunc {
	rows, cols := opts.TableRows, opts.TableColumns
	if rows < 1 {
		rows = DefaultTableRows
	}
	if cols < 1 {
		cols = DefaultTableColumns
	}

	var items []MenuItem
	for _, m := range menubarMarks {
		if s.HasMark(m.mark) {
			items = append(items, markItem(m.mark, m.icon, m.title))
		}
	}

	if s.HasNode(schema.NodeImage) && opts.InsertImage != nil {
		items = append(items, button("image", "Insert image", opts.InsertImage))
	}
	if s.HasNode(schema.NodeHorizontalRule) {
		items = append(items, button("horizontalRule", "Insert horizontal rule", editor.InsertNode(schema.NodeHorizontalRule, nil)))
	}
	if s.Capabilities().TableEditing {
		items = append(items, button("table", "Insert table", editor.InsertTable(rows, cols)))
	}

	types := []MenuItem{blockTypeItem("paragraph", "Change to paragraph", "Plain", schema.NodeParagraph, nil)}
	if s.HasNode(schema.NodeCodeBlock) {
		types = append(types, blockTypeItem("codeBlock", "Change to code block", "Code", schema.NodeCodeBlock, nil))
	}
	if s.HasNode(schema.NodeHeading) {
		for level := 1; level <= 6; level++ {
			n := strconv.Itoa(level)
			types = append(types, blockTypeItem("heading", "Change to heading "+n, "Level "+n,
				schema.NodeHeading, schema.Attrs{"level": float64(level)}))
		}
	}
	items = append(items, MenuItem{Icon: "blockType", Title: "Type...", Items: types})

	if s.HasNode(schema.NodeListItem) {
		if s.HasNode(schema.NodeBulletList) {
			items = append(items, button("bulletList", "Wrap in bullet list", editor.WrapInList(schema.NodeBulletList, nil)))
		}
		if s.HasNode(schema.NodeOrderedList) {
			items = append(items, button("orderedList", "Wrap in ordered list", editor.WrapInList(schema.NodeOrderedList, nil)))
		}
	}
	if s.HasNode(schema.NodeBlockquote) {
		items = append(items, button("blockquote", "Change to block quote", editor.Wrap(schema.NodeBlockquote, nil)))
	}
	items = append(items,
		button("join", "Join with above block", editor.JoinUp),
		button("lift", "Lift out of enclosing block", editor.Lift),
		button("selectParentNode", "Select parent node", editor.SelectParentNode),
	)

	return func(*editor.View, *document.Node) []MenuItem {
		return items
	}
}

// markFlags returns active state of every menubar mark schema has.
func markFlags(st *editor.State) []bool {
	var flags []bool
	for _, m := range menubarMarks {
		if st.Schema.HasMark(m.mark) {
			flags = append(flags, editor.MarkActive(st, m.mark))
		}
	}
	return flags
}

// CurrentDoc returns the document menubar is bound to.
func CurrentDoc(st *editor.State) *document.Node {
	return st.Doc
}

// NewMenubarController returns controller keeping menubar mounted while
// view is focused. Menubar is rebuilt when document changes and updated in
// place when only selection does.
func NewMenubarController(host Host, menu MenuFunc, log *zap.Logger) *Controller {
	return NewController(host, Options{
		Feature:   FeatureMenubar,
		Show:      (*editor.View).Focused,
		Target:    CurrentDoc,
		Secondary: markFlags,
		Menu:      menu,
	}, log)
}

// InsertImage asks picker for a file, uploads it and inserts image pointing
// to the stored asset at the cursor. Without dispatch it only reports
// whether an image fits at the cursor.
func InsertImage(ctx context.Context, transport upload.Transport, pick upload.Picker, log *zap.Logger) editor.Command {
	if log == nil {
		log = zap.NewNop()
	}
	// src is required, any value does for a dry run
	fits := editor.InsertNode(schema.NodeImage, schema.Attrs{"src": ""})
	return func(st *editor.State, dispatch func(tr *editor.Transaction)) bool {
		if transport == nil || pick == nil || !fits(st, nil) {
			return false
		}
		if dispatch == nil {
			return true
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
		if !editor.InsertNode(schema.NodeImage, asset.Attrs())(st, dispatch) {
			log.Warn("Unable to insert image", zap.String("src", asset.Src))
			return false
		}
		return true
	}
}
