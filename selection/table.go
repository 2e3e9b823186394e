package selection

import (
	"errors"
	"fmt"
	"slices"

	"prosekit/document"
	"prosekit/schema"
)

// ErrNotInTable is returned when selection is not inside a table.
var ErrNotInTable = errors.New("selection is not inside a table")

// Table locates table node within document.
type Table struct {
	Node  *document.Node
	Pos   int   // position directly before the table
	Start int   // position where table content starts
	Path  []int // child indexes from document root to the table
}

// TableAround returns innermost table containing pos or nil.
func TableAround(doc *document.Node, pos int) *Table {
	rp, err := document.Resolve(doc, pos)
	if err != nil {
		return nil
	}
	depth := rp.Find(func(n *document.Node) bool { return roleOf(n) == schema.TableRoleTable })
	if depth <= 0 {
		return nil
	}
	return &Table{
		Node:  rp.Node(depth),
		Pos:   rp.Before(depth),
		Start: rp.Start(depth),
		Path:  slices.Clone(rp.Path()[:depth]),
	}
}

// FindTable returns table selection lies in: either selected table itself
// or the nearest table enclosing selection anchor.
func FindTable(doc *document.Node, sel Selection) *Table {
	if sel == nil || doc == nil {
		return nil
	}
	if ns, ok := sel.(NodeSelection); ok && roleOf(ns.Node) == schema.TableRoleTable {
		_, path, err := document.NodeAt(doc, ns.Pos)
		if err != nil {
			return nil
		}
		return &Table{Node: ns.Node, Pos: ns.Pos, Start: ns.Pos + 1, Path: path}
	}
	return TableAround(doc, sel.AnchorPos())
}

// IsInTable reports whether selection lies within a table.
func IsInTable(doc *document.Node, sel Selection) bool {
	return FindTable(doc, sel) != nil
}

// CellAround returns position before innermost cell containing pos.
func CellAround(doc *document.Node, pos int) (int, bool) {
	rp, err := document.Resolve(doc, pos)
	if err != nil {
		return 0, false
	}
	depth := rp.Find(isCell)
	if depth <= 0 {
		return 0, false
	}
	return rp.Before(depth), true
}

// Rect is a rectangle of cell grid slots, Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// TableMap maps grid slots of a table to cells. Cells are identified by
// their offset relative to the start of table content.
type TableMap struct {
	Width  int
	Height int
	// Map holds cell offset for every slot, row by row. Slots not covered by
	// any cell hold -1.
	Map []int
	// Problems lists inconsistencies found: overlapping cells, rows
	// sticking out of table.
	Problems []string
}

// ComputeMap builds map of table. Tables with inconsistent spans still get
// a map, see Problems.
func ComputeMap(table *document.Node) *TableMap {
	height := len(table.Content)
	width := tableWidth(table)
	m := &TableMap{Width: width, Height: height, Map: make([]int, width*height)}
	for i := range m.Map {
		m.Map[i] = -1
	}

	pos := 0
	for row, rowNode := range table.Content {
		pos++
		mapPos := row * width
		rowEnd := (row + 1) * width
		for _, cell := range rowNode.Content {
			for mapPos < rowEnd && m.Map[mapPos] != -1 {
				mapPos++
			}
			if mapPos == rowEnd {
				m.Problems = append(m.Problems, fmt.Sprintf("row %d is too long", row))
				pos += cell.Size()
				continue
			}
			colspan, rowspan := spans(cell)
			for h := range rowspan {
				if row+h >= height {
					m.Problems = append(m.Problems, fmt.Sprintf("cell at offset %d overflows table", pos))
					break
				}
				start := mapPos + h*width
				for w := range colspan {
					if mapPos%width+w >= width {
						break
					}
					if m.Map[start+w] == -1 {
						m.Map[start+w] = pos
					} else {
						m.Problems = append(m.Problems, fmt.Sprintf("collision at row %d column %d", row+h, mapPos%width+w))
					}
				}
			}
			mapPos += colspan
			pos += cell.Size()
		}
		pos++
	}
	return m
}

func spans(cell *document.Node) (int, int) {
	return max(cell.Attrs.Int("colspan", 1), 1), max(cell.Attrs.Int("rowspan", 1), 1)
}

func tableWidth(table *document.Node) int {
	width := 0
	hasRowSpan := false
	for row, rowNode := range table.Content {
		rowWidth := 0
		if hasRowSpan {
			for j := range row {
				for _, cell := range table.Content[j].Content {
					if colspan, rowspan := spans(cell); j+rowspan > row {
						rowWidth += colspan
					}
				}
			}
		}
		for _, cell := range rowNode.Content {
			colspan, rowspan := spans(cell)
			rowWidth += colspan
			if rowspan > 1 {
				hasRowSpan = true
			}
		}
		width = max(width, rowWidth)
	}
	return width
}

// FindCell returns rectangle covered by cell at offset.
func (m *TableMap) FindCell(offset int) (Rect, error) {
	for i, v := range m.Map {
		if v != offset {
			continue
		}
		r := Rect{Left: i % m.Width, Top: i / m.Width}
		r.Right, r.Bottom = r.Left+1, r.Top+1
		for r.Right < m.Width && m.Map[r.Top*m.Width+r.Right] == offset {
			r.Right++
		}
		for r.Bottom < m.Height && m.Map[r.Bottom*m.Width+r.Left] == offset {
			r.Bottom++
		}
		return r, nil
	}
	return Rect{}, fmt.Errorf("no cell with offset %d found", offset)
}

// RectBetween returns smallest rectangle containing both cells and every
// cell crossing its boundary.
func (m *TableMap) RectBetween(a, b int) (Rect, error) {
	ra, err := m.FindCell(a)
	if err != nil {
		return Rect{}, err
	}
	rb, err := m.FindCell(b)
	if err != nil {
		return Rect{}, err
	}
	r := Rect{
		Left:   min(ra.Left, rb.Left),
		Top:    min(ra.Top, rb.Top),
		Right:  max(ra.Right, rb.Right),
		Bottom: max(ra.Bottom, rb.Bottom),
	}
	for changed := true; changed; {
		changed = false
		for row := r.Top; row < r.Bottom; row++ {
			for col := r.Left; col < r.Right; col++ {
				offset := m.Map[row*m.Width+col]
				if offset == -1 {
					continue
				}
				cr, _ := m.FindCell(offset)
				if cr.Left < r.Left || cr.Top < r.Top || cr.Right > r.Right || cr.Bottom > r.Bottom {
					r = Rect{
						Left:   min(r.Left, cr.Left),
						Top:    min(r.Top, cr.Top),
						Right:  max(r.Right, cr.Right),
						Bottom: max(r.Bottom, cr.Bottom),
					}
					changed = true
				}
			}
		}
	}
	return r, nil
}

// CellsInRect returns offsets of cells starting within rectangle.
func (m *TableMap) CellsInRect(r Rect) []int {
	var res []int
	seen := make(map[int]bool)
	for row := r.Top; row < r.Bottom; row++ {
		for col := r.Left; col < r.Right; col++ {
			index := row*m.Width + col
			offset := m.Map[index]
			if offset == -1 || seen[offset] {
				continue
			}
			seen[offset] = true
			if (col == r.Left && col > 0 && m.Map[index-1] == offset) ||
				(row == r.Top && row > 0 && m.Map[index-m.Width] == offset) {
				continue
			}
			res = append(res, offset)
		}
	}
	return res
}

// PositionAt returns offset at which a cell placed at row and col would
// start.
func (m *TableMap) PositionAt(row, col int, table *document.Node) int {
	rowStart := 0
	for i, rowNode := range table.Content {
		rowEnd := rowStart + rowNode.Size()
		if i == row {
			index := row*m.Width + col
			rowEndIndex := (row + 1) * m.Width
			// skip cells spanning down from previous rows
			for index < rowEndIndex && m.Map[index] < rowStart {
				index++
			}
			if index == rowEndIndex {
				return rowEnd - 1
			}
			return m.Map[index]
		}
		rowStart = rowEnd
	}
	return rowStart
}

// CellAt returns cell node at offset.
func (m *TableMap) CellAt(table *document.Node, offset int) *document.Node {
	if offset < 0 {
		return nil
	}
	n, _, err := document.NodeAt(table, offset)
	if err != nil {
		return nil
	}
	return n
}

// RowIsHeader reports whether every cell in row is a header cell.
func RowIsHeader(m *TableMap, table *document.Node, row int) bool {
	if row < 0 || row >= m.Height || m.Width == 0 {
		return false
	}
	for col := range m.Width {
		if !isHeaderCell(m.CellAt(table, m.Map[row*m.Width+col])) {
			return false
		}
	}
	return true
}

// ColumnIsHeader reports whether every cell in column is a header cell.
func ColumnIsHeader(m *TableMap, table *document.Node, col int) bool {
	if col < 0 || col >= m.Width || m.Height == 0 {
		return false
	}
	for row := range m.Height {
		if !isHeaderCell(m.CellAt(table, m.Map[row*m.Width+col])) {
			return false
		}
	}
	return true
}

// TableRect is rectangular projection of selection onto table grid.
type TableRect struct {
	Rect
	Map   *TableMap
	Table *Table
}

// SelectedRect projects selection onto the cell grid of enclosing table.
// Cell selections cover the rectangle between anchor and head cells, a
// selected table covers the whole grid, anything else covers the cell
// around selection anchor.
func SelectedRect(doc *document.Node, sel Selection) (*TableRect, error) {
	tbl := FindTable(doc, sel)
	if tbl == nil {
		return nil, ErrNotInTable
	}
	m := ComputeMap(tbl.Node)
	res := &TableRect{Map: m, Table: tbl}

	var err error
	switch s := sel.(type) {
	case CellSelection:
		res.Rect, err = m.RectBetween(s.Anchor-tbl.Start, s.Head-tbl.Start)
	case NodeSelection:
		if s.Node == tbl.Node {
			res.Rect = Rect{Right: m.Width, Bottom: m.Height}
			return res, nil
		}
		res.Rect, err = cellRect(doc, m, tbl, s.Pos)
	default:
		res.Rect, err = cellRect(doc, m, tbl, sel.AnchorPos())
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func cellRect(doc *document.Node, m *TableMap, tbl *Table, pos int) (Rect, error) {
	cellPos, ok := CellAround(doc, pos)
	if !ok {
		return Rect{}, ErrNotInTable
	}
	return m.FindCell(cellPos - tbl.Start)
}

// HeaderState reports whether the top row and the left column of selected
// rectangle consist of header cells. Both are false outside tables.
func HeaderState(doc *document.Node, sel Selection) (row, column bool) {
	rect, err := SelectedRect(doc, sel)
	if err != nil {
		return false, false
	}
	table := rect.Table.Node
	return RowIsHeader(rect.Map, table, rect.Top), ColumnIsHeader(rect.Map, table, rect.Left)
}
