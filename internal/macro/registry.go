package macro

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/meta"
)

var (
	// ErrDuplicateHandler is returned when a kind already has a handler.
	ErrDuplicateHandler = errors.New("macro handler already registered")
	// ErrUnknownKind is returned when registering a handler for KindUnknown
	// or an out-of-range kind. The fallback covers unknown macros.
	ErrUnknownKind = errors.New("unknown macro kind")
	// ErrNoTracker is returned by the jira handler when no issue tracker is
	// configured.
	ErrNoTracker = errors.New("no issue tracker configured")
)

// BodyRenderer converts a rich-text body subtree to Markdown, expanding any
// nested macros and tables.
type BodyRenderer func(ctx context.Context, body dom.NodeID) (string, error)

// Env is what a handler may touch during one conversion.
type Env struct {
	Tree   *dom.Tree
	Meta   *meta.Context
	Issues confluence.IssueTracker
	Body   BodyRenderer
	Log    *logger.Logger
}

// RenderBody renders a rich-text body with the configured renderer, or as
// plain text when none is set.
func (e *Env) RenderBody(ctx context.Context, body dom.NodeID) (string, error) {
	if e.Body == nil {
		return strings.TrimSpace(e.Tree.Text(body)), nil
	}
	return e.Body(ctx, body)
}

// RenderFunc produces the replacement for a macro.
type RenderFunc func(ctx context.Context, env *Env, m Macro) (Fragment, error)

// PlaceholderFunc produces the replacement used when Render fails.
type PlaceholderFunc func(m Macro, err error) Fragment

// Handler renders one macro kind.
type Handler struct {
	Name        string
	Render      RenderFunc
	Placeholder PlaceholderFunc
}

// Registry maps macro kinds to handlers. Kinds without a handler use the
// fallback. Registration happens at construction; lookups are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	fallback Handler
}

// NewRegistry creates an empty registry that sends every macro to fallback.
func NewRegistry(fallback Handler) *Registry {
	return &Registry{
		handlers: make(map[Kind]Handler),
		fallback: fallback,
	}
}

// Register stores h for kind.
func (r *Registry) Register(kind Kind, h Handler) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[kind]; exists {
		return ErrDuplicateHandler
	}
	r.handlers[kind] = h
	return nil
}

// Lookup returns the handler for kind, or the fallback.
func (r *Registry) Lookup(kind Kind) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[kind]; ok {
		return h
	}
	return r.fallback
}

// Kinds lists the registered kinds in enum order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRegistry returns a registry with every built-in handler.
func DefaultRegistry() *Registry {
	r := NewRegistry(FallbackHandler())
	for kind, h := range builtins() {
		if err := r.Register(kind, h); err != nil {
			panic(err)
		}
	}
	return r
}

func builtins() map[Kind]Handler {
	code := CodeHandler()
	expand := ExpandHandler()
	return map[Kind]Handler{
		KindCode:     code,
		KindNoFormat: NoFormatHandler(),
		KindPanel:    PanelHandler(),
		KindInfo:     PanelHandler(),
		KindNote:     PanelHandler(),
		KindWarning:  PanelHandler(),
		KindTip:      PanelHandler(),
		KindStatus:   StatusHandler(),
		KindExpand:   expand,
		KindDetails:  expand,
		KindExcerpt:  expand,
		KindTOC:      TOCHandler(),
		KindAnchor:   AnchorHandler(),
		KindJira:     JiraHandler(),
		KindViewFile: ViewFileHandler(),
		KindIframe:   IframeHandler(),
	}
}
