package table

import (
	"strconv"
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
)

const spanMarker = "__SPAN__"

// Span limits follow the HTML table model.
const (
	maxColspan = 1000
	maxRowspan = 65534
)

// maxColumns bounds the expanded width of one table.
const maxColumns = 1000

// Cell is one slot of the expanded grid. Every slot covered by a spanning
// cell holds a copy of the origin's content; only the origin has Origin set.
type Cell struct {
	Content string
	Origin  bool
	RowSpan int
	ColSpan int
}

// Matrix is the data part of a table with spans expanded.
type Matrix struct {
	Rows   [][]Cell
	RowIDs []string
}

// Width returns the number of columns.
func (m *Matrix) Width() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0])
}

// structure is what the engine learns from the raw rows before any cell is
// rendered.
type structure struct {
	rows       [][]dom.NodeID
	hasHeader  bool
	columns    int
	headerRows int
	colspans   []spanAt
	rowspans   []spanAt
}

type spanAt struct {
	row, col, span int
}

func (s spanAt) String() string {
	return "row " + strconv.Itoa(s.row) + " col " + strconv.Itoa(s.col) + " (span " + strconv.Itoa(s.span) + ")"
}

func analyze(tree *dom.Tree, rows [][]dom.NodeID) structure {
	s := structure{rows: rows}

	for r, cells := range rows {
		col := 0
		for _, cell := range cells {
			colspan := spanAttr(tree, cell, "colspan")
			rowspan := spanAttr(tree, cell, "rowspan")
			if colspan > 1 {
				s.colspans = append(s.colspans, spanAt{row: r + 1, col: col + 1, span: colspan})
			}
			if rowspan > 1 {
				s.rowspans = append(s.rowspans, spanAt{row: r + 1, col: col + 1, span: rowspan})
			}
			col += colspan
		}
	}

	first := rows[0]
	if len(first) == 0 {
		return s
	}

	s.hasHeader = true
	maxRowspan := 1
	for _, cell := range first {
		s.columns += spanAttr(tree, cell, "colspan")
		if tree.Tag(cell) != "th" {
			s.hasHeader = false
		}
		if tree.AttrOr(cell, "data-cell-background", "") != "" || tree.AttrOr(cell, "data-highlight-colour", "") != "" {
			s.hasHeader = false
		}
		maxRowspan = max(maxRowspan, spanAttr(tree, cell, "rowspan"))
	}

	if s.hasHeader {
		s.headerRows = 1
		if maxRowspan > 1 && len(rows) > 1 {
			s.headerRows = min(maxRowspan, len(rows))
		}
	}
	return s
}

// dataRows returns the rows below the header.
func (s structure) dataRows() [][]dom.NodeID {
	return s.rows[s.headerRows:]
}

// headerMatrix combines stacked header rows into width column labels. Cells
// covered by a span repeat the origin's label once.
func headerMatrix(tree *dom.Tree, rows [][]dom.NodeID, width int, label func(dom.NodeID) string) []string {
	grid := make([][]string, len(rows))
	filled := make([][]bool, len(rows))
	for i := range grid {
		grid[i] = make([]string, width)
		filled[i] = make([]bool, width)
	}

	for r, cells := range rows {
		col := 0
		for _, cell := range cells {
			for col < width && filled[r][col] {
				col++
			}
			if col >= width {
				break
			}
			colspan := spanAttr(tree, cell, "colspan")
			rowspan := spanAttr(tree, cell, "rowspan")
			text := label(cell)
			for rr := r; rr < min(r+rowspan, len(rows)); rr++ {
				for cc := col; cc < min(col+colspan, width); cc++ {
					if filled[rr][cc] {
						continue
					}
					filled[rr][cc] = true
					if rr == r && cc == col {
						grid[rr][cc] = text
					} else {
						grid[rr][cc] = spanMarker + text
					}
				}
			}
			col += colspan
		}
	}

	headers := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for r := range rows {
			v := grid[r][c]
			if v == "" {
				continue
			}
			if strings.HasPrefix(v, spanMarker) {
				v = strings.TrimPrefix(v, spanMarker)
				if contains(parts, v) || v == "" {
					continue
				}
			}
			parts = append(parts, v)
		}
		if len(parts) == 0 {
			headers[c] = "Column " + strconv.Itoa(c+1)
			continue
		}
		headers[c] = clean(strings.Join(parts, " - "))
	}
	return headers
}

// buildMatrix expands the data rows into a grid of width columns. Occupancy
// is tracked apart from content so empty cells still claim their slots.
func buildMatrix(tree *dom.Tree, rows [][]dom.NodeID, width int, render func(dom.NodeID) string) *Matrix {
	m := &Matrix{
		Rows:   make([][]Cell, len(rows)),
		RowIDs: make([]string, len(rows)),
	}
	occupied := make([][]bool, len(rows))
	for i := range rows {
		m.Rows[i] = make([]Cell, width)
		occupied[i] = make([]bool, width)
		if len(rows[i]) > 0 {
			m.RowIDs[i] = clean(tree.TextSep(rows[i][0], " "))
		}
	}

	for r, cells := range rows {
		col := 0
		for _, cell := range cells {
			for col < width && occupied[r][col] {
				col++
			}
			if col >= width {
				break
			}
			colspan := spanAttr(tree, cell, "colspan")
			rowspan := spanAttr(tree, cell, "rowspan")
			content := render(cell)

			for rr := r; rr < min(r+rowspan, len(rows)); rr++ {
				for cc := col; cc < min(col+colspan, width); cc++ {
					if occupied[rr][cc] {
						continue
					}
					occupied[rr][cc] = true
					slot := Cell{Content: content, Origin: rr == r && cc == col, RowSpan: 1, ColSpan: 1}
					if rr == r {
						slot.ColSpan = colspan
					}
					if cc == col {
						slot.RowSpan = rowspan
					}
					m.Rows[rr][cc] = slot
				}
			}
			col += colspan
		}
	}
	return m
}

// spanAttr reads a colspan or rowspan attribute. Missing or invalid values
// count as 1; oversized ones are clamped.
func spanAttr(tree *dom.Tree, cell dom.NodeID, key string) int {
	v, ok := tree.Attr(cell, key)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if key == "colspan" {
		return min(n, maxColspan)
	}
	return min(n, maxRowspan)
}

// clean collapses all whitespace, newlines included, to single spaces.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
