package table

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/gerunddev/confluence2md/internal/dom"
)

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

// Section is the heading a table sits under. Level 0 means the document root.
type Section struct {
	Text  string
	Level int
}

// DetectSection finds the last heading before table within scope. Heading
// elements win; otherwise Markdown headings in the preceding text count.
func DetectSection(tree *dom.Tree, scope, table dom.NodeID) Section {
	var (
		found     Section
		preceding []string
	)
	for _, id := range tree.Descendants(scope) {
		if id == table {
			break
		}
		switch tree.Kind(id) {
		case dom.ElementNode:
			if level, ok := headingLevels[tree.Tag(id)]; ok {
				if t := clean(tree.TextSep(id, " ")); t != "" {
					found = Section{Text: t, Level: level}
				}
			}
		case dom.TextNode:
			preceding = append(preceding, tree.Data(id))
		}
	}
	if found.Text != "" {
		return found
	}
	return markdownSection(strings.Join(preceding, "\n"))
}

// markdownSection returns the last ATX or setext heading in src.
func markdownSection(src string) Section {
	if !strings.Contains(src, "#") && !strings.Contains(src, "\n=") && !strings.Contains(src, "\n-") {
		return Section{}
	}

	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var found Section
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
			b.WriteByte(' ')
		}
		found = Section{Text: clean(b.String()), Level: h.Level}
		return ast.WalkSkipChildren, nil
	})
	return found
}
