package editor

import (
	"slices"

	"prosekit/document"
	"prosekit/schema"
	"prosekit/selection"
)

// tableEdit collects changes to table cells keyed by their offsets in the
// original table and builds the changed table in one pass.
type tableEdit struct {
	table      *document.Node
	m          *selection.TableMap
	cells      [][]*document.Node // nil entries are removed cells
	location   map[int][2]int     // cell offset -> row, index
	inserts    []map[int][]*document.Node
	rowsBefore map[int][]*document.Node
	removeRows map[int]bool
}

func newTableEdit(table *document.Node, m *selection.TableMap) *tableEdit {
	e := &tableEdit{
		table:      table,
		m:          m,
		cells:      make([][]*document.Node, len(table.Content)),
		location:   make(map[int][2]int),
		inserts:    make([]map[int][]*document.Node, len(table.Content)),
		rowsBefore: make(map[int][]*document.Node),
		removeRows: make(map[int]bool),
	}
	pos := 0
	for r, row := range table.Content {
		pos++
		e.cells[r] = slices.Clone(row.Content)
		e.inserts[r] = make(map[int][]*document.Node)
		for i, c := range row.Content {
			e.location[pos] = [2]int{r, i}
			pos += c.Size()
		}
		pos++
	}
	return e
}

func (e *tableEdit) cell(offset int) *document.Node {
	loc, ok := e.location[offset]
	if !ok {
		return nil
	}
	return e.table.Content[loc[0]].Content[loc[1]]
}

func (e *tableEdit) update(offset int, fn func(n *document.Node) *document.Node) {
	if loc, ok := e.location[offset]; ok && e.cells[loc[0]][loc[1]] != nil {
		e.cells[loc[0]][loc[1]] = fn(e.cells[loc[0]][loc[1]])
	}
}

// insertAt inserts cells into row before the cell at offset, offsets which
// are not cells of this row append to the row.
func (e *tableEdit) insertAt(row, offset int, cells ...*document.Node) {
	index := len(e.cells[row])
	if loc, ok := e.location[offset]; ok && loc[0] == row {
		index = loc[1]
	}
	e.inserts[row][index] = append(e.inserts[row][index], cells...)
}

// insertAfter inserts cells right after the cell at offset.
func (e *tableEdit) insertAfter(offset int, cells ...*document.Node) {
	loc, ok := e.location[offset]
	if !ok {
		return
	}
	e.inserts[loc[0]][loc[1]+1] = append(e.inserts[loc[0]][loc[1]+1], cells...)
}

func (e *tableEdit) build() *document.Node {
	rows := make([]*document.Node, 0, len(e.table.Content))
	for r, row := range e.table.Content {
		rows = append(rows, e.rowsBefore[r]...)
		if e.removeRows[r] {
			continue
		}
		var content []*document.Node
		for i, c := range e.cells[r] {
			content = append(content, e.inserts[r][i]...)
			if c != nil {
				content = append(content, c)
			}
		}
		content = append(content, e.inserts[r][len(e.cells[r])]...)
		rows = append(rows, row.WithContent(content))
	}
	rows = append(rows, e.rowsBefore[len(e.table.Content)]...)
	return e.table.WithContent(rows)
}

func newCell(typ string) *document.Node {
	return document.NewNode(typ, nil, document.NewNode(schema.NodeParagraph, nil))
}

func cellSpans(cell *document.Node) (int, int) {
	return max(cell.Attrs.Int("colspan", 1), 1), max(cell.Attrs.Int("rowspan", 1), 1)
}

// setColspan changes colspan keeping column widths when they can be kept,
// index is where columns are added or removed relative to the cell.
func setColspan(cell *document.Node, colspan, index, delta int) *document.Node {
	attrs := schema.Attrs{"colspan": float64(colspan)}
	if widths, ok := cell.Attr("colwidth").([]any); ok && len(widths) > 0 {
		widths = slices.Clone(widths)
		switch {
		case delta > 0 && index <= len(widths):
			for range delta {
				widths = slices.Insert(widths, index, any(0.0))
			}
		case delta < 0 && index-delta <= len(widths):
			widths = slices.Delete(widths, index, index-delta)
		}
		if len(widths) != colspan || slices.ContainsFunc(widths, func(w any) bool { return w == 0.0 }) {
			widths = nil
		}
		if widths == nil {
			attrs["colwidth"] = nil
		} else {
			attrs["colwidth"] = widths
		}
	}
	return cell.WithAttrs(attrs)
}

// tableCommand runs fn with rectangle selected in a table. fn returns the
// changed table or nil when command does not apply.
func tableCommand(fn func(st *State, rect *selection.TableRect) *document.Node) Command {
	return func(st *State, dispatch func(tr *Transaction)) bool {
		rect, err := selection.SelectedRect(st.Doc, st.Selection)
		if err != nil {
			return false
		}
		table := fn(st, rect)
		if table == nil {
			return false
		}
		if dispatch == nil {
			return true
		}
		tr := st.Tr()
		if err := tr.Replace(rect.Table.Path, func(*document.Node) *document.Node { return table }); err != nil {
			return false
		}
		dispatch(tr)
		return true
	}
}

func cellTypeAt(rect *selection.TableRect, row, col int) string {
	m := rect.Map
	if c := m.CellAt(rect.Table.Node, m.Map[row*m.Width+col]); c != nil {
		return c.Type
	}
	return schema.NodeTableCell
}

func addRow(rect *selection.TableRect, row int) *document.Node {
	m, table := rect.Map, rect.Table.Node
	e := newTableEdit(table, m)

	ref := row - 1
	if row == 0 {
		ref = 0
	}
	if selection.RowIsHeader(m, table, ref) {
		ref = row
		if row == 0 || row == m.Height {
			ref = -1
		}
	}

	var cells []*document.Node
	seen := make(map[int]bool)
	for col := 0; col < m.Width; col++ {
		index := row*m.Width + col
		if row > 0 && row < m.Height && m.Map[index] != -1 && m.Map[index] == m.Map[index-m.Width] {
			offset := m.Map[index]
			colspan, rowspan := cellSpans(e.cell(offset))
			if !seen[offset] {
				seen[offset] = true
				e.update(offset, func(n *document.Node) *document.Node {
					return n.WithAttrs(schema.Attrs{"rowspan": float64(rowspan + 1)})
				})
			}
			col += colspan - 1
			continue
		}
		typ := schema.NodeTableCell
		if ref >= 0 {
			typ = cellTypeAt(rect, ref, col)
		}
		cells = append(cells, newCell(typ))
	}
	e.rowsBefore[row] = append(e.rowsBefore[row], document.NewNode(schema.NodeTableRow, nil, cells...))
	return e.build()
}

// AddRowBefore inserts row above selection.
var AddRowBefore = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	return addRow(rect, rect.Top)
})

// AddRowAfter inserts row below selection.
var AddRowAfter = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	return addRow(rect, rect.Bottom)
})

func addColumn(rect *selection.TableRect, col int) *document.Node {
	m, table := rect.Map, rect.Table.Node
	e := newTableEdit(table, m)

	ref := col - 1
	if col == 0 {
		ref = 0
	}
	if selection.ColumnIsHeader(m, table, ref) {
		ref = col
		if col == 0 || col == m.Width {
			ref = -1
		}
	}

	seen := make(map[int]bool)
	for row := 0; row < m.Height; row++ {
		index := row*m.Width + col
		if col > 0 && col < m.Width && m.Map[index] != -1 && m.Map[index] == m.Map[index-1] {
			offset := m.Map[index]
			cell := e.cell(offset)
			colspan, rowspan := cellSpans(cell)
			if !seen[offset] {
				seen[offset] = true
				cr, _ := m.FindCell(offset)
				e.update(offset, func(n *document.Node) *document.Node {
					return setColspan(n, colspan+1, col-cr.Left, 1)
				})
			}
			row += rowspan - 1
			continue
		}
		typ := schema.NodeTableCell
		if ref >= 0 {
			typ = cellTypeAt(rect, row, ref)
		}
		e.insertAt(row, m.PositionAt(row, col, table), newCell(typ))
	}
	return e.build()
}

// AddColumnBefore inserts column left of selection.
var AddColumnBefore = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	return addColumn(rect, rect.Left)
})

// AddColumnAfter inserts column right of selection.
var AddColumnAfter = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	return addColumn(rect, rect.Right)
})

// DeleteRow removes selected rows, it is not available when every row is
// selected.
var DeleteRow = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	m, table := rect.Map, rect.Table.Node
	if rect.Top == 0 && rect.Bottom == m.Height {
		return nil
	}
	e := newTableEdit(table, m)
	for r := rect.Top; r < rect.Bottom; r++ {
		e.removeRows[r] = true
	}

	seen := make(map[int]bool)
	for _, offset := range m.Map {
		if offset == -1 || seen[offset] {
			continue
		}
		seen[offset] = true
		cr, _ := m.FindCell(offset)
		removed := max(0, min(cr.Bottom, rect.Bottom)-max(cr.Top, rect.Top))
		if removed == 0 {
			continue
		}
		cell := e.cell(offset)
		_, rowspan := cellSpans(cell)
		if removed == rowspan {
			continue
		}
		moved := cell.WithAttrs(schema.Attrs{"rowspan": float64(rowspan - removed)})
		if cr.Top < rect.Top {
			e.update(offset, func(*document.Node) *document.Node { return moved })
			continue
		}
		// cell starts in a removed row, it continues in the first kept one
		e.insertAt(rect.Bottom, m.PositionAt(rect.Bottom, cr.Left, table), moved)
	}
	return e.build()
})

// DeleteColumn removes selected columns, it is not available when every
// column is selected.
var DeleteColumn = tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
	m, table := rect.Map, rect.Table.Node
	if rect.Left == 0 && rect.Right == m.Width {
		return nil
	}
	e := newTableEdit(table, m)

	seen := make(map[int]bool)
	for _, offset := range m.Map {
		if offset == -1 || seen[offset] {
			continue
		}
		seen[offset] = true
		cr, _ := m.FindCell(offset)
		from, to := max(cr.Left, rect.Left), min(cr.Right, rect.Right)
		if to <= from {
			continue
		}
		colspan, _ := cellSpans(e.cell(offset))
		if to-from >= colspan {
			e.update(offset, func(*document.Node) *document.Node { return nil })
			continue
		}
		e.update(offset, func(n *document.Node) *document.Node {
			return setColspan(n, colspan-(to-from), from-cr.Left, -(to - from))
		})
	}
	return e.build()
})

// isEmptyCell reports whether cell holds a single empty paragraph.
func isEmptyCell(cell *document.Node) bool {
	return len(cell.Content) == 1 && cell.Content[0].Type == schema.NodeParagraph && len(cell.Content[0].Content) == 0
}

// MergeCells merges cells of cell selection into the top left one.
var MergeCells = tableCommand(func(st *State, rect *selection.TableRect) *document.Node {
	if _, ok := st.Selection.(selection.CellSelection); !ok {
		return nil
	}
	m := rect.Map
	offsets := m.CellsInRect(rect.Rect)
	if len(offsets) < 2 {
		return nil
	}
	e := newTableEdit(rect.Table.Node, m)
	first := m.Map[rect.Top*m.Width+rect.Left]

	var content []*document.Node
	for _, offset := range offsets {
		if c := e.cell(offset); !isEmptyCell(c) {
			content = append(content, c.Content...)
		}
		if offset != first {
			e.update(offset, func(*document.Node) *document.Node { return nil })
		}
	}
	if len(content) == 0 {
		content = []*document.Node{document.NewNode(schema.NodeParagraph, nil)}
	}
	e.update(first, func(n *document.Node) *document.Node {
		return n.WithAttrs(schema.Attrs{
			"colspan":  float64(rect.Right - rect.Left),
			"rowspan":  float64(rect.Bottom - rect.Top),
			"colwidth": nil,
		}).WithContent(content)
	})
	return e.build()
})

// SplitCell splits selected cell spanning several slots into single slot
// cells.
var SplitCell = tableCommand(func(st *State, rect *selection.TableRect) *document.Node {
	m := rect.Map
	if cs, ok := st.Selection.(selection.CellSelection); ok && cs.Anchor != cs.Head {
		return nil
	}
	offset := m.Map[rect.Top*m.Width+rect.Left]
	e := newTableEdit(rect.Table.Node, m)
	cell := e.cell(offset)
	colspan, rowspan := cellSpans(cell)
	if colspan == 1 && rowspan == 1 {
		return nil
	}

	attrs := schema.Attrs{"colspan": 1.0, "rowspan": 1.0, "colwidth": nil}
	if widths, ok := cell.Attr("colwidth").([]any); ok && len(widths) > 0 {
		attrs["colwidth"] = []any{widths[0]}
	}
	e.update(offset, func(n *document.Node) *document.Node { return n.WithAttrs(attrs) })

	cells := func(n int) []*document.Node {
		res := make([]*document.Node, n)
		for i := range res {
			res[i] = newCell(cell.Type)
		}
		return res
	}
	e.insertAfter(offset, cells(colspan-1)...)
	for r := rect.Top + 1; r < rect.Top+rowspan; r++ {
		e.insertAt(r, m.PositionAt(r, rect.Left, rect.Table.Node), cells(colspan)...)
	}
	return e.build()
})

func toggleHeader(kind string) Command {
	return tableCommand(func(_ *State, rect *selection.TableRect) *document.Node {
		m, table := rect.Map, rect.Table.Node
		enabled := func(k string) bool {
			r := selection.Rect{Right: 1, Bottom: 1}
			if k == "row" {
				r.Right = m.Width
			} else {
				r.Bottom = m.Height
			}
			for _, offset := range m.CellsInRect(r) {
				if c := m.CellAt(table, offset); c == nil || c.Type != schema.NodeTableHeader {
					return false
				}
			}
			return true
		}
		rowEnabled, columnEnabled := enabled("row"), enabled("column")

		var cells selection.Rect
		var isEnabled bool
		if kind == "row" {
			isEnabled = rowEnabled
			cells = selection.Rect{Right: m.Width, Bottom: 1}
			if columnEnabled {
				cells.Left = 1
			}
		} else {
			isEnabled = columnEnabled
			cells = selection.Rect{Right: 1, Bottom: m.Height}
			if rowEnabled {
				cells.Top = 1
			}
		}
		newType := schema.NodeTableHeader
		if isEnabled {
			newType = schema.NodeTableCell
		}

		e := newTableEdit(table, m)
		for _, offset := range m.CellsInRect(cells) {
			e.update(offset, func(n *document.Node) *document.Node { return n.WithType(newType) })
		}
		return e.build()
	})
}

// ToggleHeaderRow turns the first row into header row or back.
var ToggleHeaderRow = toggleHeader("row")

// ToggleHeaderColumn turns the first column into header column or back.
var ToggleHeaderColumn = toggleHeader("column")

// DeleteTable removes table selection is in. A table which is the only
// content of the document is replaced by an empty paragraph.
func DeleteTable(st *State, dispatch func(tr *Transaction)) bool {
	tbl := selection.FindTable(st.Doc, st.Selection)
	if tbl == nil {
		return false
	}
	if dispatch == nil {
		return true
	}
	tr := st.Tr()
	parent, err := document.At(st.Doc, tbl.Path[:len(tbl.Path)-1])
	if err != nil {
		return false
	}
	replace := func(*document.Node) *document.Node { return nil }
	if len(parent.Content) == 1 {
		replace = func(*document.Node) *document.Node { return document.NewNode(schema.NodeParagraph, nil) }
	}
	if err := tr.Replace(tbl.Path, replace); err != nil {
		return false
	}
	next := &State{Schema: st.Schema, Doc: tr.Doc()}
	tr.SetSelection(selection.Cursor(next.near(tbl.Pos)))
	dispatch(tr)
	return true
}
