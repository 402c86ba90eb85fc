package rewrite

import (
	"context"
	"strconv"
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/meta"
)

const listIndent = "    "

func isList(tree *dom.Tree, id dom.NodeID) bool {
	return tree.IsElement(id, "ol", "ul")
}

// lists replaces every outermost list under scope with its Markdown.
func (r *Rewriter) lists(ctx context.Context, tree *dom.Tree, cc *meta.Context, scope dom.NodeID) {
	for _, id := range tree.FindAll(scope, "ol", "ul") {
		if !tree.Within(id, scope) || tree.Ancestor(id, scope, "ol", "ul") != dom.None {
			continue
		}
		if err := replace(tree, id, r.ConvertList(ctx, tree, cc, id, 0)); err != nil {
			r.log.ElementFailed(documentID(cc), tree.Tag(id), err)
		}
	}
}

// ConvertList renders an ol or ul as Markdown list lines at the given
// nesting level. Item content is rewritten in place; nested lists are
// rendered one level deeper.
func (r *Rewriter) ConvertList(ctx context.Context, tree *dom.Tree, cc *meta.Context, list dom.NodeID, level int) string {
	if cc == nil {
		cc = meta.NewContext("", "")
	}
	ordered := tree.Tag(list) == "ol"
	indent := strings.Repeat(listIndent, level)

	var lines []string
	for i, item := range tree.Elements(list, "li") {
		marker := "-"
		if ordered {
			marker = strconv.Itoa(i+1) + "."
		}

		r.confluence(ctx, tree, cc, item)
		r.generic(tree, cc, item, func(id dom.NodeID) bool {
			return isList(tree, id) || tree.Ancestor(id, item, "ol", "ul") != dom.None
		})

		var (
			content strings.Builder
			nested  []string
		)
		for _, child := range tree.Children(item) {
			if isList(tree, child) {
				for _, line := range strings.Split(r.ConvertList(ctx, tree, cc, child, level+1), "\n") {
					if strings.TrimSpace(line) != "" {
						nested = append(nested, line)
					}
				}
				content.WriteString("\n")
				continue
			}
			content.WriteString(tree.Markdown(child))
		}

		var text []string
		for _, line := range strings.Split(content.String(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				text = append(text, line)
			}
		}

		if len(text) == 0 {
			lines = append(lines, indent+marker)
		} else {
			lines = append(lines, indent+marker+" "+text[0])
			for _, line := range text[1:] {
				lines = append(lines, indent+listIndent+line)
			}
		}
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n\n")
}
