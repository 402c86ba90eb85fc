// Package macro expands ac:structured-macro elements into Markdown through a
// registry of handlers keyed by macro kind.
package macro

import (
	"context"
	"fmt"

	"github.com/gerunddev/confluence2md/internal/dom"
	"github.com/gerunddev/confluence2md/internal/logger"
)

// Stats counts the macros a pass handled.
type Stats struct {
	Processed int
	Failed    int
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.Processed += o.Processed
	s.Failed += o.Failed
}

// Dispatcher replaces macros with their handler output.
type Dispatcher struct {
	registry *Registry
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher. A nil registry uses DefaultRegistry.
func NewDispatcher(registry *Registry, log *logger.Logger) *Dispatcher {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{registry: registry, log: log}
}

// Expand replaces every macro under scope, in document order. Macros removed
// by an earlier replacement are skipped. A failing handler is replaced by its
// placeholder; the pass itself never fails.
func (d *Dispatcher) Expand(ctx context.Context, env *Env, scope dom.NodeID) Stats {
	tree := env.Tree
	macros := tree.FindAll(scope, tagMacro)
	if len(macros) == 0 {
		return Stats{}
	}

	documentID := ""
	if env.Meta != nil {
		documentID = env.Meta.DocumentID
	}
	d.log.Debug("processing macros", "document_id", documentID, "count", len(macros))

	var stats Stats
	for _, id := range macros {
		if !tree.Within(id, scope) {
			continue
		}

		m := Read(tree, id)
		h := d.registry.Lookup(m.Kind)
		frag, err := render(ctx, env, h, m)
		if err != nil {
			stats.Failed++
			d.log.MacroFailed(documentID, h.Name, err)
			frag = placeholder(h, m, err)
		}

		nodes, err := frag.materialize(tree)
		if err != nil {
			stats.Failed++
			d.log.MacroFailed(documentID, h.Name, err)
			nodes, _ = placeholder(h, m, err).materialize(tree)
		}
		if err := tree.Replace(id, nodes...); err != nil {
			d.log.MacroFailed(documentID, h.Name, err)
			continue
		}
		stats.Processed++
	}

	d.log.MacroSummary(documentID, stats.Processed, stats.Failed)
	return stats
}

func render(ctx context.Context, env *Env, h Handler, m Macro) (frag Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("macro %s panicked: %v", m.DisplayName(), r)
		}
	}()
	if h.Render == nil {
		return Empty(), fmt.Errorf("macro %s has no renderer", m.DisplayName())
	}
	return h.Render(ctx, env, m)
}

func placeholder(h Handler, m Macro, err error) (frag Fragment) {
	defer func() {
		if recover() != nil {
			frag = Text(m.DisplayName())
		}
	}()
	if h.Placeholder == nil {
		return Comment(" Error processing macro: " + m.DisplayName() + " ").Then(Text("\n\n"))
	}
	return h.Placeholder(m, err)
}
