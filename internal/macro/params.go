package macro

import (
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
)

const (
	tagMacro         = "ac:structured-macro"
	tagParameter     = "ac:parameter"
	tagPlainTextBody = "ac:plain-text-body"
	tagRichTextBody  = "ac:rich-text-body"
	attrName         = "ac:name"
)

// Param is one macro parameter.
type Param struct {
	Name  string
	Value string
}

// Params keeps parameters in document order. Later duplicates win on lookup.
type Params []Param

// Get returns the value of the named parameter.
func (p Params) Get(name string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}
	return "", false
}

// Value returns the named parameter, or def when it is missing.
func (p Params) Value(name, def string) string {
	if v, ok := p.Get(name); ok {
		return v
	}
	return def
}

// String renders the parameters as k='v' pairs.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, param.Name+"='"+param.Value+"'")
	}
	return strings.Join(parts, ", ")
}

// Macro is a read-only view of an ac:structured-macro element.
type Macro struct {
	Node   dom.NodeID
	Name   string
	Kind   Kind
	Params Params

	tree *dom.Tree
}

// Read builds the view of the macro element at id. Only parameters that
// belong to this macro are collected; those of nested macros are not.
func Read(tree *dom.Tree, id dom.NodeID) Macro {
	name := tree.AttrOr(id, attrName, "")
	m := Macro{
		Node: id,
		Name: name,
		Kind: ParseKind(name),
		tree: tree,
	}
	for _, p := range tree.FindAll(id, tagParameter) {
		if tree.Ancestor(p, dom.None, tagMacro) != id {
			continue
		}
		key := tree.AttrOr(p, attrName, "")
		if key == "" {
			continue
		}
		m.Params = append(m.Params, Param{Name: key, Value: strings.TrimSpace(tree.Text(p))})
	}
	return m
}

// DisplayName is the macro name, or "Unknown" when the element has none.
func (m Macro) DisplayName() string {
	if m.Name == "" {
		return "Unknown"
	}
	return m.Name
}

// PlainTextBody returns the macro's plain-text body verbatim.
func (m Macro) PlainTextBody() (string, bool) {
	body := m.own(tagPlainTextBody)
	if body == dom.None {
		return "", false
	}
	return m.tree.Text(body), true
}

// RichTextBody returns the macro's rich-text body element.
func (m Macro) RichTextBody() (dom.NodeID, bool) {
	body := m.own(tagRichTextBody)
	return body, body != dom.None
}

// ParamNode returns the named parameter element, for parameters that carry
// markup such as ri:url.
func (m Macro) ParamNode(name string) dom.NodeID {
	for _, p := range m.tree.FindAll(m.Node, tagParameter) {
		if m.tree.Ancestor(p, dom.None, tagMacro) == m.Node && m.tree.AttrOr(p, attrName, "") == name {
			return p
		}
	}
	return dom.None
}

// Find returns the first descendant of the macro with one of tags.
func (m Macro) Find(tags ...string) dom.NodeID {
	return m.tree.Find(m.Node, tags...)
}

// own finds the first tag element whose nearest enclosing macro is m.
func (m Macro) own(tag string) dom.NodeID {
	for _, id := range m.tree.FindAll(m.Node, tag) {
		if m.tree.Ancestor(id, dom.None, tagMacro) == m.Node {
			return id
		}
	}
	return dom.None
}
