// Package diff compares a fresh conversion with Markdown already on disk.
package diff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/confluence2md/internal/batch"
	"github.com/gerunddev/confluence2md/internal/convert"
)

// Report is the outcome of a drift check.
type Report struct {
	Unified string
	Added   int
	Removed int
}

// Changed reports whether the existing file differs from the conversion.
func (r *Report) Changed() bool {
	return r.Added > 0 || r.Removed > 0
}

// Generate converts the page at sourcePath and diffs the existing Markdown
// file against the result. The existing file is the old side.
func Generate(ctx context.Context, c *convert.Converter, sourcePath, mdPath, spaceID string, frontMatter bool) (*Report, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	existing, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}

	doc := batch.DocumentFor(sourcePath, string(source), spaceID)
	res, err := c.Convert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert page: %w", err)
	}

	fresh := res.Markdown + "\n"
	if frontMatter {
		if fresh, err = convert.WithFrontMatter(doc, res); err != nil {
			return nil, err
		}
	}

	return Compare(filepath.Base(mdPath), filepath.Base(sourcePath), string(existing), fresh), nil
}

// Compare builds a unified diff from old to new.
func Compare(oldName, newName, oldText, newText string) *Report {
	edits := myers.ComputeEdits(span.URIFromPath(oldName), oldText, newText)
	unified := fmt.Sprint(gotextdiff.ToUnified(oldName, newName, oldText, edits))

	r := &Report{Unified: unified}
	for i, line := range strings.Split(unified, "\n") {
		switch {
		case i < 2 && (strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ")):
		case strings.HasPrefix(line, "+"):
			r.Added++
		case strings.HasPrefix(line, "-"):
			r.Removed++
		}
	}
	return r
}

// Render renders the diff for the terminal.
func (r *Report) Render() string {
	return Render(fmt.Sprintf("```diff\n%s```\n", r.Unified), 120)
}

// Render renders Markdown for the terminal with glamour. The input is
// returned unchanged if glamour fails.
func Render(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return rendered
}
