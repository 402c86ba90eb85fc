// Package dom holds the mutable document tree a single conversion works on.
//
// Nodes live in an arena owned by Tree and are addressed by NodeID handles.
// Every node keeps its parent handle and an ordered slice of child handles,
// so replacing a node is a splice of its parent's child slice. Detached nodes
// stay in the arena (handles never dangle) but are no longer reachable from
// the root.
package dom

import (
	"errors"
	"slices"
)

// NodeID is a handle into a Tree's node arena.
type NodeID int32

// None never refers to a node.
const None NodeID = -1

// Kind is the type of a node.
type Kind uint8

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	CommentNode
)

// Attr is an element attribute. Namespaced keys keep their prefix, e.g. "ac:name".
type Attr struct {
	Key string
	Val string
}

var (
	// ErrTooDeep is returned when markup nests deeper than the parser accepts.
	ErrTooDeep = errors.New("document nesting too deep")
	// ErrDetached is returned when replacing a node that has no parent.
	ErrDetached = errors.New("node is not attached to a parent")
)

type node struct {
	kind     Kind
	tag      string
	attrs    []Attr
	data     string
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes with a single document root.
type Tree struct {
	nodes []node
	root  NodeID
}

// New returns an empty tree containing only the document root.
func New() *Tree {
	t := &Tree{}
	t.root = t.add(node{kind: DocumentNode, parent: None})
	return t
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Root returns the document root.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes ever allocated in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Kind returns the kind of id.
func (t *Tree) Kind(id NodeID) Kind {
	if !t.valid(id) {
		return DocumentNode
	}
	return t.nodes[id].kind
}

// Tag returns the lower-cased tag name of an element, or "" for other nodes.
func (t *Tree) Tag(id NodeID) string {
	if !t.valid(id) || t.nodes[id].kind != ElementNode {
		return ""
	}
	return t.nodes[id].tag
}

// Data returns the text of a text or comment node.
func (t *Tree) Data(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.nodes[id].data
}

// Attr returns the value of the attribute key and whether it is present.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	if !t.valid(id) {
		return "", false
	}
	for _, a := range t.nodes[id].attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value, or def when it is missing or empty.
func (t *Tree) AttrOr(id NodeID, key, def string) string {
	if v, ok := t.Attr(id, key); ok && v != "" {
		return v
	}
	return def
}

// Attrs returns a copy of the element's attributes.
func (t *Tree) Attrs(id NodeID) []Attr {
	if !t.valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].attrs)
}

// Parent returns the parent handle, or None for the root and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return None
	}
	return t.nodes[id].parent
}

// Children returns a copy of the child handles of id.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].children)
}

// Elements returns the element children of id.
func (t *Tree) Elements(id NodeID, tags ...string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.IsElement(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}

// IsElement reports whether id is an element, and when tags are given,
// whether its tag is one of them.
func (t *Tree) IsElement(id NodeID, tags ...string) bool {
	if !t.valid(id) || t.nodes[id].kind != ElementNode {
		return false
	}
	return len(tags) == 0 || slices.Contains(tags, t.nodes[id].tag)
}

// Descendants returns every node below scope in document order.
func (t *Tree) Descendants(scope NodeID) []NodeID {
	if !t.valid(scope) {
		return nil
	}
	var out []NodeID
	stack := reversed(t.nodes[scope].children)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, id)
		stack = append(stack, reversed(t.nodes[id].children)...)
	}
	return out
}

// FindAll returns the elements below scope whose tag is one of tags, in
// document order. With no tags every element matches.
func (t *Tree) FindAll(scope NodeID, tags ...string) []NodeID {
	var out []NodeID
	for _, id := range t.Descendants(scope) {
		if t.IsElement(id, tags...) {
			out = append(out, id)
		}
	}
	return out
}

// Find returns the first element below scope matching tags, or None.
func (t *Tree) Find(scope NodeID, tags ...string) NodeID {
	if !t.valid(scope) {
		return None
	}
	stack := reversed(t.nodes[scope].children)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.IsElement(id, tags...) {
			return id
		}
		stack = append(stack, reversed(t.nodes[id].children)...)
	}
	return None
}

// Depth returns how many ancestors separate id from scope. A direct child of
// scope has depth 0. Nodes outside scope return -1.
func (t *Tree) Depth(id, scope NodeID) int {
	depth := 0
	for p := t.Parent(id); p != None; p = t.Parent(p) {
		if p == scope {
			return depth
		}
		depth++
	}
	return -1
}

// Within reports whether id is scope or one of its descendants.
func (t *Tree) Within(id, scope NodeID) bool {
	for n := id; n != None; n = t.Parent(n) {
		if n == scope {
			return true
		}
	}
	return false
}

// Attached reports whether id is reachable from the document root.
func (t *Tree) Attached(id NodeID) bool {
	return t.Within(id, t.root)
}

// Ancestor returns the nearest ancestor of id whose tag is one of tags,
// stopping at scope. It returns None when there is none.
func (t *Tree) Ancestor(id, scope NodeID, tags ...string) NodeID {
	for p := t.Parent(id); p != None && p != scope; p = t.Parent(p) {
		if t.IsElement(p, tags...) {
			return p
		}
	}
	return None
}

// NewText allocates a detached text node.
func (t *Tree) NewText(s string) NodeID {
	return t.add(node{kind: TextNode, data: s, parent: None})
}

// NewComment allocates a detached comment node.
func (t *Tree) NewComment(s string) NodeID {
	return t.add(node{kind: CommentNode, data: s, parent: None})
}

// NewElement allocates a detached element.
func (t *Tree) NewElement(tag string, attrs ...Attr) NodeID {
	return t.add(node{kind: ElementNode, tag: tag, attrs: attrs, parent: None})
}

// AppendChild moves child under parent as its last child.
func (t *Tree) AppendChild(parent, child NodeID) {
	if !t.valid(parent) || !t.valid(child) {
		return
	}
	t.detach(child)
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// Replace puts with in place of id, in order, and detaches id.
func (t *Tree) Replace(id NodeID, with ...NodeID) error {
	if !t.valid(id) || t.nodes[id].parent == None {
		return ErrDetached
	}
	for _, w := range with {
		if w != id {
			t.detach(w)
		}
	}
	p := t.nodes[id].parent
	siblings := t.nodes[p].children
	idx := slices.Index(siblings, id)
	if idx < 0 {
		return ErrDetached
	}

	next := make([]NodeID, 0, len(siblings)-1+len(with))
	next = append(next, siblings[:idx]...)
	next = append(next, with...)
	next = append(next, siblings[idx+1:]...)
	t.nodes[p].children = next

	t.nodes[id].parent = None
	for _, w := range with {
		t.nodes[w].parent = p
	}
	return nil
}

// ReplaceWithText replaces id by a single text node holding s.
func (t *Tree) ReplaceWithText(id NodeID, s string) error {
	return t.Replace(id, t.NewText(s))
}

// Remove detaches id from its parent.
func (t *Tree) Remove(id NodeID) error {
	return t.Replace(id)
}

// Clone deep-copies the subtree at id. The copy is detached.
func (t *Tree) Clone(id NodeID) NodeID {
	if !t.valid(id) {
		return None
	}
	src := t.nodes[id]
	c := t.add(node{
		kind:   src.kind,
		tag:    src.tag,
		attrs:  slices.Clone(src.attrs),
		data:   src.data,
		parent: None,
	})
	for _, child := range src.children {
		t.AppendChild(c, t.Clone(child))
	}
	return c
}

func (t *Tree) detach(id NodeID) {
	p := t.nodes[id].parent
	if p == None {
		return
	}
	t.nodes[p].children = slices.DeleteFunc(t.nodes[p].children, func(c NodeID) bool {
		return c == id
	})
	t.nodes[id].parent = None
}

func reversed(ids []NodeID) []NodeID {
	out := slices.Clone(ids)
	slices.Reverse(out)
	return out
}
