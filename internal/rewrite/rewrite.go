// Package rewrite turns the HTML left after macro and table expansion into
// Markdown text nodes.
//
// Rewrite runs three passes over a scope. Confluence-specific elements
// (ac:link, ac:image, emoticons and the like) go first, in document order.
// Lists are converted next as whole blocks. Everything else is rewritten
// deepest first, so an element always sees its children already converted.
package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/meta"
)

var extraNewlines = regexp.MustCompile(`\n{3,}`)

// Collapse reduces runs of three or more newlines to a blank line.
func Collapse(s string) string {
	return extraNewlines.ReplaceAllString(s, "\n\n")
}

// Element is the node an element handler rewrites.
type Element struct {
	Tree  *dom.Tree
	ID    dom.NodeID
	Meta  *meta.Context
	Links *meta.Extractor
}

// Text returns the element's text.
func (e Element) Text() string {
	return e.Tree.Text(e.ID)
}

// Attr returns an attribute of the element, or "".
func (e Element) Attr(key string) string {
	return e.Tree.AttrOr(e.ID, key, "")
}

// ElementFunc returns the Markdown that replaces an element. An empty result
// removes the element.
type ElementFunc func(ctx context.Context, el Element) (string, error)

// ElementHandler rewrites one Confluence element.
type ElementHandler struct {
	Render ElementFunc
	// Placeholder replaces the element when Render fails. Nil uses the
	// element's trimmed text.
	Placeholder func(el Element, err error) string
}

// Rewriter converts elements to Markdown. It holds no per-document state
// and is safe for concurrent use once built.
type Rewriter struct {
	handlers map[string]ElementHandler
	tags     []string
	links    *meta.Extractor
	log      *logger.Logger
}

// New creates a rewriter with the built-in Confluence element handlers.
func New(links *meta.Extractor, log *logger.Logger) *Rewriter {
	if log == nil {
		log = logger.Discard()
	}
	if links == nil {
		links = meta.NewExtractor(nil, nil, log)
	}
	r := &Rewriter{
		handlers: make(map[string]ElementHandler),
		links:    links,
		log:      log,
	}
	for tag, h := range confluenceElements() {
		r.Register(tag, h)
	}
	return r
}

// Register sets the handler for tag, replacing any existing one. Call it
// before the rewriter is shared.
func (r *Rewriter) Register(tag string, h ElementHandler) {
	tag = strings.ToLower(tag)
	if _, exists := r.handlers[tag]; !exists {
		r.tags = append(r.tags, tag)
	}
	r.handlers[tag] = h
}

// Rewrite converts every element under scope, leaving only text and
// comments.
func (r *Rewriter) Rewrite(ctx context.Context, tree *dom.Tree, cc *meta.Context, scope dom.NodeID) {
	if cc == nil {
		cc = meta.NewContext("", "")
	}
	r.confluence(ctx, tree, cc, scope)
	r.lists(ctx, tree, cc, scope)
	r.generic(tree, cc, scope, nil)
}

// RenderCell rewrites a table cell and returns its Markdown.
func (r *Rewriter) RenderCell(ctx context.Context, tree *dom.Tree, cc *meta.Context, cell dom.NodeID) string {
	r.Rewrite(ctx, tree, cc, cell)
	return strings.TrimSpace(Collapse(tree.InnerMarkdown(cell)))
}

func (r *Rewriter) confluence(ctx context.Context, tree *dom.Tree, cc *meta.Context, scope dom.NodeID) {
	r.externalLinks(tree, cc, scope)
	if len(r.tags) == 0 {
		return
	}
	for _, id := range tree.FindAll(scope, r.tags...) {
		if !tree.Within(id, scope) {
			continue
		}
		el := Element{Tree: tree, ID: id, Meta: cc, Links: r.links}
		h := r.handlers[tree.Tag(id)]

		out, err := render(ctx, h, el)
		if err != nil {
			r.log.ElementFailed(documentID(cc), tree.Tag(id), err)
			out = placeholder(h, el, err)
		}
		if err := replace(tree, id, out); err != nil {
			r.log.ElementFailed(documentID(cc), tree.Tag(id), err)
		}
	}
}

func render(ctx context.Context, h ElementHandler, el Element) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("element handler panicked: %v", r)
		}
	}()
	return h.Render(ctx, el)
}

func placeholder(h ElementHandler, el Element, err error) string {
	if h.Placeholder != nil {
		return h.Placeholder(el, err)
	}
	return strings.TrimSpace(el.Text())
}

// replace swaps id for a text node, or removes it when s is empty.
func replace(tree *dom.Tree, id dom.NodeID, s string) error {
	if s == "" {
		return tree.Remove(id)
	}
	return tree.ReplaceWithText(id, s)
}

func documentID(cc *meta.Context) string {
	if cc == nil {
		return ""
	}
	return cc.DocumentID
}
