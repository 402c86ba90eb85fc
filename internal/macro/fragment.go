package macro

import (
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
)

type partKind uint8

const (
	partText partKind = iota
	partMarkup
	partComment
	partNodes
)

type part struct {
	kind  partKind
	text  string
	nodes []dom.NodeID
}

// Fragment is the replacement a handler produces for a macro: an ordered
// list of literal Markdown text, markup to parse, comments and existing
// nodes. The zero value is empty.
type Fragment struct {
	parts []part
}

// Empty returns a fragment with no content.
func Empty() Fragment { return Fragment{} }

// Text is literal Markdown. It is never parsed.
func Text(s string) Fragment {
	return Fragment{parts: []part{{kind: partText, text: s}}}
}

// Markup is parsed into nodes when the fragment is materialized, so later
// stages (tables, links) still see its elements.
func Markup(s string) Fragment {
	return Fragment{parts: []part{{kind: partMarkup, text: s}}}
}

// Comment becomes a comment node. Double hyphens are split so the rendered
// comment stays well formed.
func Comment(s string) Fragment {
	return Fragment{parts: []part{{kind: partComment, text: commentSafe(s)}}}
}

// Nodes reuses existing nodes of the tree.
func Nodes(ids ...dom.NodeID) Fragment {
	return Fragment{parts: []part{{kind: partNodes, nodes: ids}}}
}

// Then appends g to f.
func (f Fragment) Then(g Fragment) Fragment {
	parts := make([]part, 0, len(f.parts)+len(g.parts))
	parts = append(parts, f.parts...)
	parts = append(parts, g.parts...)
	return Fragment{parts: parts}
}

// Blank reports whether the fragment carries no visible content.
func (f Fragment) Blank() bool {
	for _, p := range f.parts {
		switch p.kind {
		case partNodes:
			if len(p.nodes) > 0 {
				return false
			}
		case partComment:
			return false
		default:
			if strings.TrimSpace(p.text) != "" {
				return false
			}
		}
	}
	return true
}

// Render flattens the fragment to its final textual form without touching
// the tree. Markup parts are returned as written.
func (f Fragment) Render(tree *dom.Tree) string {
	var b strings.Builder
	for _, p := range f.parts {
		switch p.kind {
		case partComment:
			b.WriteString("<!--" + p.text + "-->")
		case partNodes:
			for _, id := range p.nodes {
				b.WriteString(tree.Markdown(id))
			}
		default:
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// materialize turns the fragment into detached nodes of tree, in order.
func (f Fragment) materialize(tree *dom.Tree) ([]dom.NodeID, error) {
	if f.Blank() {
		return []dom.NodeID{tree.NewText("")}, nil
	}
	var out []dom.NodeID
	for _, p := range f.parts {
		switch p.kind {
		case partText:
			if p.text != "" {
				out = append(out, tree.NewText(p.text))
			}
		case partComment:
			out = append(out, tree.NewComment(p.text))
		case partMarkup:
			ids, err := tree.ParseFragment(p.text)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		case partNodes:
			out = append(out, p.nodes...)
		}
	}
	return out, nil
}

func commentSafe(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}
