// Package table converts HTML tables into heading-structured Markdown with
// annotations describing the table's shape.
//
// A table is rebuilt as a span-expanded matrix, then written row by row: each
// data row becomes a heading and each non-empty cell a sub-heading named after
// its column. Tables are converted on a clone so a failure leaves the
// original in place for the generic rewriter.
package table

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/meta"
)

// CellRenderer turns the content of one cell into Markdown.
type CellRenderer interface {
	RenderCell(ctx context.Context, tree *dom.Tree, cc *meta.Context, cell dom.NodeID) string
}

// Stats counts the tables a pass handled.
type Stats struct {
	Converted int
	Skipped   int
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.Converted += o.Converted
	s.Skipped += o.Skipped
}

// Engine converts tables.
type Engine struct {
	cells CellRenderer
	log   *logger.Logger
}

// NewEngine creates an engine. A nil renderer uses the cell's plain text.
func NewEngine(cells CellRenderer, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{cells: cells, log: log}
}

// TransformAll replaces every table under scope with its Markdown. Sections
// are detected up front, then tables are converted innermost first so an
// outer table sees its nested tables already converted.
func (e *Engine) TransformAll(ctx context.Context, tree *dom.Tree, cc *meta.Context, scope dom.NodeID) Stats {
	tables := tree.FindAll(scope, "table")
	if len(tables) == 0 {
		return Stats{}
	}

	found := make(map[dom.NodeID]Section, len(tables))
	index := make(map[dom.NodeID]int, len(tables))
	for i, t := range tables {
		found[t] = DetectSection(tree, scope, t)
		index[t] = i + 1
	}

	sort.SliceStable(tables, func(i, j int) bool {
		return tree.Depth(tables[i], scope) > tree.Depth(tables[j], scope)
	})

	var stats Stats
	for _, t := range tables {
		if !tree.Within(t, scope) {
			continue
		}
		out, ok := e.Transform(ctx, tree, cc, t, found[t])
		if !ok {
			stats.Skipped++
			e.log.TableSkipped(documentID(cc), index[t], "no rows or conversion failed")
			continue
		}
		if err := tree.ReplaceWithText(t, out); err != nil {
			stats.Skipped++
			e.log.TableSkipped(documentID(cc), index[t], err.Error())
			continue
		}
		stats.Converted++
	}
	return stats
}

// Transform converts one table to annotated Markdown. It works on a clone;
// on failure, or for a table without data rows, it returns false and the
// tree is unchanged.
func (e *Engine) Transform(ctx context.Context, tree *dom.Tree, cc *meta.Context, table dom.NodeID, section Section) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.TableSkipped(documentID(cc), 0, fmt.Sprint(r))
			out, ok = "", false
		}
	}()

	clone := tree.Clone(table)
	rows := tableRows(tree, clone)
	if len(rows) == 0 {
		return "", false
	}

	s := analyze(tree, rows)
	if len(s.dataRows()) == 0 {
		return "", false
	}
	if s.columns > maxColumns {
		e.log.TableSkipped(documentID(cc), 0, "too many columns: "+strconv.Itoa(s.columns))
		return "", false
	}
	render := func(cell dom.NodeID) string {
		return e.renderCell(ctx, tree, cc, cell)
	}

	var headers []string
	switch {
	case s.hasHeader && s.headerRows > 1:
		headers = headerMatrix(tree, rows[:s.headerRows], s.columns, func(cell dom.NodeID) string {
			return clean(render(cell))
		})
	case s.hasHeader:
		for _, cell := range rows[0] {
			label := clean(render(cell))
			for i := 0; i < spanAttr(tree, cell, "colspan"); i++ {
				headers = append(headers, label)
			}
		}
	default:
		for i := 1; i <= s.columns; i++ {
			headers = append(headers, "Table Data Column "+strconv.Itoa(i))
		}
	}

	m := buildMatrix(tree, s.dataRows(), len(headers), render)

	lines := []string{
		"\n\n<!-- TABLE_START -->",
		summary(s),
		sectionLine(section),
	}
	if len(headers) > 0 {
		lines = append(lines, comment("Table Purpose", purpose(headers, section.Text)))
	}
	lines = append(lines,
		comment("Column Headers", jsonList(headers)),
		comment("Row Headers", jsonList(rowHeaders(m.RowIDs))),
		comment("Table Complexity", complexity(s)),
	)

	return strings.Join(lines, "\n") + "\n\n" + sections(m, headers, section.Level) + "\n\n<!-- TABLE_END -->", true
}

func (e *Engine) renderCell(ctx context.Context, tree *dom.Tree, cc *meta.Context, cell dom.NodeID) string {
	if e.cells == nil {
		return strings.TrimSpace(tree.Text(cell))
	}
	return e.cells.RenderCell(ctx, tree, cc, cell)
}

// sections writes one heading per data row and one sub-heading per filled
// column.
func sections(m *Matrix, headers []string, level int) string {
	rowPrefix := strings.Repeat("#", level+1)
	colPrefix := strings.Repeat("#", level+2)

	var lines []string
	for r, row := range m.Rows {
		id := m.RowIDs[r]
		if id == "" {
			id = "Table Data Row " + strconv.Itoa(r+1)
		}
		lines = append(lines, rowPrefix+" "+id, "")

		for c, header := range headers {
			if c >= len(row) || strings.TrimSpace(header) == "" {
				continue
			}
			content := row[c].Content
			if strings.TrimSpace(content) == "" {
				continue
			}
			lines = append(lines, colPrefix+" "+header, content, "")
		}
	}
	return strings.Join(lines, "\n")
}

// tableRows returns the cells of every row that belongs to table itself, not
// to a table nested in one of its cells.
func tableRows(tree *dom.Tree, table dom.NodeID) [][]dom.NodeID {
	var rows [][]dom.NodeID
	for _, tr := range tree.FindAll(table, "tr") {
		if tree.Ancestor(tr, dom.None, "table") != table {
			continue
		}
		rows = append(rows, tree.Elements(tr, "td", "th"))
	}
	return rows
}

func documentID(cc *meta.Context) string {
	if cc == nil {
		return ""
	}
	return cc.DocumentID
}
