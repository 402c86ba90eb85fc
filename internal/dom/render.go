package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text returns the concatenated text of id and its descendants. Comments are
// not text.
func (t *Tree) Text(id NodeID) string {
	return t.TextSep(id, "")
}

// TextSep joins every text node below id (or id itself) with sep.
func (t *Tree) TextSep(id NodeID, sep string) string {
	if !t.valid(id) {
		return ""
	}
	if t.nodes[id].kind == TextNode {
		return t.nodes[id].data
	}
	var parts []string
	for _, d := range t.Descendants(id) {
		if t.nodes[d].kind == TextNode {
			parts = append(parts, t.nodes[d].data)
		}
	}
	return strings.Join(parts, sep)
}

// Markdown flattens the subtree at id into its final textual form: text is
// written verbatim, comments keep their delimiters and elements contribute
// only their children.
func (t *Tree) Markdown(id NodeID) string {
	var b strings.Builder
	t.writeMarkdown(&b, id)
	return b.String()
}

// InnerMarkdown flattens only the children of id.
func (t *Tree) InnerMarkdown(id NodeID) string {
	var b strings.Builder
	for _, c := range t.Children(id) {
		t.writeMarkdown(&b, c)
	}
	return b.String()
}

func (t *Tree) writeMarkdown(b *strings.Builder, id NodeID) {
	if !t.valid(id) {
		return
	}
	n := t.nodes[id]
	switch n.kind {
	case TextNode:
		b.WriteString(n.data)
	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.data)
		b.WriteString("-->")
	default:
		for _, c := range n.children {
			t.writeMarkdown(b, c)
		}
	}
}

// OuterHTML renders id and its subtree as markup.
func (t *Tree) OuterHTML(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	if t.nodes[id].kind == DocumentNode {
		return t.InnerHTML(id)
	}
	var b strings.Builder
	if err := html.Render(&b, t.htmlNode(id)); err != nil {
		return t.Text(id)
	}
	return b.String()
}

// InnerHTML renders the children of id as markup.
func (t *Tree) InnerHTML(id NodeID) string {
	var b strings.Builder
	for _, c := range t.Children(id) {
		if err := html.Render(&b, t.htmlNode(c)); err != nil {
			b.WriteString(html.EscapeString(t.Text(c)))
		}
	}
	return b.String()
}

func (t *Tree) htmlNode(id NodeID) *html.Node {
	n := t.nodes[id]
	switch n.kind {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.data}
	}

	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.tag,
		DataAtom: atom.Lookup([]byte(n.tag)),
	}
	for _, a := range n.attrs {
		out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.children {
		out.AppendChild(t.htmlNode(c))
	}
	return out
}
