package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxDepth = 512

var cdataPrefix = []byte("<![CDATA[")

// voidElements never take children, so a self-closing form is already complete.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Parse builds a tree from Storage Format markup.
func Parse(markup string) (*Tree, error) {
	t := New()
	ids, err := t.ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		t.AppendChild(t.root, id)
	}
	return t, nil
}

// ParseFragment parses markup into the arena and returns the detached
// top-level nodes in order.
func (t *Tree) ParseFragment(markup string) ([]NodeID, error) {
	normalized, err := normalize(markup)
	if err != nil {
		return nil, err
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(normalized), context)
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}

	ids := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		id, ok, err := t.importNode(n, 0)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *Tree) importNode(n *html.Node, depth int) (NodeID, bool, error) {
	if depth > maxDepth {
		return None, false, ErrTooDeep
	}

	switch n.Type {
	case html.TextNode:
		return t.NewText(n.Data), true, nil
	case html.CommentNode:
		return t.NewComment(n.Data), true, nil
	case html.ElementNode:
		attrs := make([]Attr, 0, len(n.Attr))
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			attrs = append(attrs, Attr{Key: key, Val: a.Val})
		}
		id := t.NewElement(n.Data, attrs...)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child, ok, err := t.importNode(c, depth+1)
			if err != nil {
				return None, false, err
			}
			if ok {
				t.AppendChild(id, child)
			}
		}
		return id, true, nil
	default:
		return None, false, nil
	}
}

// normalize rewrites the two constructs the HTML parser would otherwise
// mangle: self-closing non-void tags such as <ri:user .../> become explicit
// open/close pairs, and CDATA sections become escaped text. All other tokens
// are copied verbatim.
func normalize(markup string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	z.AllowCDATA(true)

	var b strings.Builder
	b.Grow(len(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenizing markup: %w", err)
			}
			return b.String(), nil

		case html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if voidElements[tok.Data] {
				b.WriteString(raw)
				continue
			}
			tok.Type = html.StartTagToken
			b.WriteString(tok.String())
			b.WriteString("</")
			b.WriteString(tok.Data)
			b.WriteString(">")

		case html.TextToken:
			raw := z.Raw()
			if bytes.HasPrefix(raw, cdataPrefix) {
				body := bytes.TrimSuffix(raw[len(cdataPrefix):], []byte("]]>"))
				b.WriteString(html.EscapeString(string(body)))
				continue
			}
			b.Write(raw)

		default:
			b.Write(z.Raw())
		}
	}
}
