// Package convert runs the Storage Format to Markdown pipeline for one
// document at a time.
package convert

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/macro"
	"github.com/gerunddev/confluence2md/internal/meta"
	"github.com/gerunddev/confluence2md/internal/rewrite"
	"github.com/gerunddev/confluence2md/internal/table"
)

// Document is one page to convert.
type Document struct {
	ID      string
	SpaceID string
	Title   string
	Markup  string
}

// Stats describes what a conversion did.
type Stats struct {
	Macros   macro.Stats
	Tables   table.Stats
	Fallback bool
	Duration time.Duration
}

// Result is a converted document.
type Result struct {
	Markdown string
	Metadata meta.Metadata
	Stats    Stats
}

// Option configures a Converter.
type Option func(*options)

type options struct {
	log         *logger.Logger
	registry    *macro.Registry
	users       confluence.UserDirectory
	pages       confluence.PageFinder
	issues      confluence.IssueTracker
	attachments confluence.AttachmentLister
	assetLinks  bool
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegistry replaces the built-in macro handlers.
func WithRegistry(r *macro.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithUserDirectory enables user mention resolution.
func WithUserDirectory(d confluence.UserDirectory) Option {
	return func(o *options) { o.users = d }
}

// WithPageFinder enables page link resolution.
func WithPageFinder(f confluence.PageFinder) Option {
	return func(o *options) { o.pages = f }
}

// WithIssueTracker enables jira macros.
func WithIssueTracker(t confluence.IssueTracker) Option {
	return func(o *options) { o.issues = t }
}

// WithAttachmentLister enables attachment metadata resolution.
func WithAttachmentLister(l confluence.AttachmentLister) Option {
	return func(o *options) { o.attachments = l }
}

// WithDirectory uses d for every lookup.
func WithDirectory(d *confluence.Directory) Option {
	return func(o *options) {
		o.users = d
		o.pages = d
		o.issues = d
		o.attachments = d
	}
}

// WithAssetLinks replaces asset placeholders with download URLs when the
// attachment is known.
func WithAssetLinks(enabled bool) Option {
	return func(o *options) { o.assetLinks = enabled }
}

// Converter converts documents. It holds only read-only state and is safe
// for concurrent Convert calls.
type Converter struct {
	dispatcher  *macro.Dispatcher
	tables      *table.Engine
	rewriter    *rewrite.Rewriter
	extractor   *meta.Extractor
	issues      confluence.IssueTracker
	attachments confluence.AttachmentLister
	fallback    *fallback
	assetLinks  bool
	log         *logger.Logger
}

// New creates a converter.
func New(opts ...Option) *Converter {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Discard()
	}

	extractor := meta.NewExtractor(o.users, o.pages, o.log)
	rw := rewrite.New(extractor, o.log)
	return &Converter{
		dispatcher:  macro.NewDispatcher(o.registry, o.log),
		tables:      table.NewEngine(rw, o.log),
		rewriter:    rw,
		extractor:   extractor,
		issues:      o.issues,
		attachments: o.attachments,
		fallback:    newFallback(),
		assetLinks:  o.assetLinks,
		log:         o.log,
	}
}

// Convert turns doc into Markdown. Content problems never fail the call:
// they degrade to placeholders or to the fallback conversion. The only
// error is the context's, checked between stages.
func (c *Converter) Convert(ctx context.Context, doc Document) (*Result, error) {
	start := time.Now()
	cc := meta.NewContext(doc.ID, doc.SpaceID)
	res := &Result{}

	if strings.TrimSpace(doc.Markup) == "" {
		res.Metadata = cc.Metadata()
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markup := doc.Markup
	if doc.Title != "" {
		markup = "<h1>" + html.EscapeString(doc.Title) + "</h1>" + markup
	}
	c.log.ConversionStarted(doc.ID, cc.ID, len(markup))

	tree, err := dom.Parse(markup)
	if err != nil {
		c.log.FallbackUsed(doc.ID, err)
		res.Markdown = c.fallback.convertOrText(markup)
		res.Metadata = cc.Metadata()
		res.Stats.Fallback = true
		res.Stats.Duration = time.Since(start)
		return res, nil
	}

	r := &run{c: c, tree: tree, cc: cc}
	r.env = &macro.Env{
		Tree:   tree,
		Meta:   cc,
		Issues: c.issues,
		Body:   r.renderBody,
		Log:    c.log,
	}
	root := tree.Root()

	stages := []struct {
		name string
		fn   func()
	}{
		{"prefetch", func() { c.extractor.Prefetch(ctx, tree, cc) }},
		{"macros", func() { r.stats.Macros.Add(c.dispatcher.Expand(ctx, r.env, root)) }},
		{"tables", func() { r.stats.Tables.Add(c.tables.TransformAll(ctx, tree, cc, root)) }},
		{"rewrite", func() { c.rewriter.Rewrite(ctx, tree, cc, root) }},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.stage(doc.ID, s.name, s.fn)
	}

	md := strings.TrimSpace(rewrite.Collapse(tree.Markdown(root)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	md = c.resolveAssets(ctx, cc, md)

	res.Markdown = md
	res.Metadata = cc.Metadata()
	res.Stats = r.stats
	res.Stats.Duration = time.Since(start)
	c.log.ConversionCompleted(doc.ID, res.Stats.Macros.Processed, res.Stats.Macros.Failed, res.Stats.Tables.Converted, res.Stats.Duration)
	return res, nil
}

// stage runs one pass. A panic skips the rest of the pass; the document
// keeps whatever the pass had already done.
func (c *Converter) stage(documentID, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.StageFailed(documentID, name, fmt.Errorf("%v", r))
		}
	}()
	fn()
}

// run is the state of one Convert call.
type run struct {
	c     *Converter
	tree  *dom.Tree
	cc    *meta.Context
	env   *macro.Env
	stats Stats
}

// renderBody converts a rich macro body with the full pipeline scoped to
// the body, so macros and tables nested in it are expanded too.
func (r *run) renderBody(ctx context.Context, body dom.NodeID) (string, error) {
	r.stats.Macros.Add(r.c.dispatcher.Expand(ctx, r.env, body))
	r.stats.Tables.Add(r.c.tables.TransformAll(ctx, r.tree, r.cc, body))
	r.c.rewriter.Rewrite(ctx, r.tree, r.cc, body)
	return strings.TrimSpace(rewrite.Collapse(r.tree.InnerMarkdown(body))), nil
}
