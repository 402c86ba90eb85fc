// Package batch converts a directory of exported pages incrementally.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gerunddev/confluence2md/internal/convert"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/state"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// Sentinel errors for batch runs.
var (
	ErrNoInput   = errors.New("input directory does not exist")
	ErrReadPage  = errors.New("failed to read page")
	ErrWritePage = errors.New("failed to write markdown")
)

// Status is the outcome of one file.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Options controls a batch run.
type Options struct {
	InputDir    string
	OutputDir   string
	Extensions  []string
	Workers     int
	Force       bool
	DryRun      bool
	FrontMatter bool
	SpaceID     string
	Timeout     time.Duration
	Exclude     func(rel string) bool
}

// FileResult is the outcome of one source file.
type FileResult struct {
	Source   string
	Output   string
	Status   Status
	Reason   string
	Err      error
	Stats    convert.Stats
	Duration time.Duration
}

// Result represents the result of a batch run
type Result struct {
	Files     []FileResult
	Converted int
	Skipped   int
	Errors    []error
	StartTime time.Time
	EndTime   time.Time
}

// String returns a human-readable summary of the batch result
func (r *Result) String() string {
	duration := r.EndTime.Sub(r.StartTime)
	return fmt.Sprintf(
		"Batch complete: %d files converted, %d skipped, %d errors (took %v)",
		r.Converted,
		r.Skipped,
		len(r.Errors),
		duration.Round(time.Millisecond),
	)
}

// Runner converts the files of a directory with a pool of workers.
type Runner struct {
	conv     *convert.Converter
	state    *state.State
	log      *logger.Logger
	opts     Options
	progress func(FileResult)
}

// NewRunner creates a runner. st may be nil, which converts every file.
func NewRunner(conv *convert.Converter, st *state.State, log *logger.Logger, opts Options) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	if st == nil {
		st = state.NewState()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		conv:  conv,
		state: st,
		log:   log,
		opts:  opts,
	}
}

// OnProgress registers fn to be called after each file. Calls are
// serialized.
func (r *Runner) OnProgress(fn func(FileResult)) {
	r.progress = fn
}

// Run scans the input directory and converts every changed file.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{StartTime: time.Now()}

	if info, err := os.Stat(r.opts.InputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, r.opts.InputDir)
	}

	files, err := ScanDirectory(r.opts.InputDir, r.opts.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", r.opts.InputDir, err)
	}
	if r.opts.Exclude != nil {
		kept := files[:0]
		for _, f := range files {
			rel, _ := filepath.Rel(r.opts.InputDir, f)
			if r.opts.Exclude(rel) {
				r.log.Skipped(f, "excluded")
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	r.log.BatchStarted(r.opts.InputDir, r.opts.OutputDir, r.opts.Workers)
	result.Files = r.convertAll(ctx, files)

	for _, f := range result.Files {
		switch f.Status {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		default:
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", f.Source, f.Err))
		}
	}
	if !r.opts.DryRun {
		r.state.Prune(files)
	}

	result.EndTime = time.Now()
	r.log.BatchCompleted(result.Converted, result.Skipped, len(result.Errors), result.EndTime.Sub(result.StartTime))
	return result, ctx.Err()
}

func (r *Runner) convertAll(ctx context.Context, files []string) []FileResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := r.opts.Workers
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]FileResult, len(files))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				var res FileResult
				if ctx.Err() != nil {
					res = FileResult{Source: files[idx], Status: StatusFailed, Err: ctx.Err()}
				} else {
					res = r.convertFile(ctx, files[idx])
				}
				results[idx] = res

				if r.progress != nil {
					mu.Lock()
					r.progress(res)
					mu.Unlock()
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func (r *Runner) convertFile(ctx context.Context, source string) FileResult {
	start := time.Now()
	res := FileResult{Source: source, Output: r.OutputPath(source)}
	fail := func(err error) FileResult {
		res.Status = StatusFailed
		res.Err = err
		res.Duration = time.Since(start)
		r.log.FileError(source, err)
		return res
	}

	if !r.opts.Force {
		changed, err := r.state.HasChanged(source)
		if err != nil {
			return fail(err)
		}
		if !changed {
			res.Status = StatusSkipped
			res.Reason = "unchanged"
			res.Duration = time.Since(start)
			r.log.Skipped(source, res.Reason)
			return res
		}
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadPage, err))
	}

	doc := DocumentFor(source, string(data), r.opts.SpaceID)
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	conv, err := r.conv.Convert(ctx, doc)
	if err != nil {
		return fail(err)
	}
	res.Stats = conv.Stats

	out := conv.Markdown + "\n"
	if r.opts.FrontMatter {
		if out, err = convert.WithFrontMatter(doc, conv); err != nil {
			return fail(err)
		}
	}

	if r.opts.DryRun {
		res.Status = StatusConverted
		res.Reason = "dry run"
		res.Duration = time.Since(start)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(res.Output), dirPermissions); err != nil {
		return fail(fmt.Errorf("creating output directory: %w", err))
	}
	if err := os.WriteFile(res.Output, []byte(out), filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWritePage, err))
	}

	if err := r.state.Update(source, state.FileState{
		Output:     res.Output,
		DocumentID: doc.ID,
		Title:      doc.Title,
		Macros:     conv.Stats.Macros.Processed,
		Failed:     conv.Stats.Macros.Failed,
		Tables:     conv.Stats.Tables.Converted,
		Fallback:   conv.Stats.Fallback,
	}); err != nil {
		r.log.StateError("update", err)
	}

	reason := "changed"
	if r.opts.Force {
		reason = "forced"
	}
	r.log.FileConverted(source, res.Output, reason)
	res.Status = StatusConverted
	res.Reason = reason
	res.Duration = time.Since(start)
	return res
}

// OutputPath maps a source file to its Markdown path under the output
// directory, keeping the relative layout.
func (r *Runner) OutputPath(source string) string {
	rel, err := filepath.Rel(r.opts.InputDir, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(source)
	}
	return filepath.Join(r.opts.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")
}

// ScanDirectory scans a directory for files with any of the given
// extensions, in lexical order
func ScanDirectory(dir string, exts []string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && want[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

var idPrefix = regexp.MustCompile(`^(\d+)(?:[-_ ](.*))?$`)

// DocumentFor builds the document for a source file. A leading numeric
// part of the file name is taken as the page id and the rest as the title:
// "12345-Release-Notes.xml" is page 12345 titled "Release Notes".
func DocumentFor(source, markup, spaceID string) convert.Document {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	doc := convert.Document{SpaceID: spaceID, Markup: markup}

	title := name
	if m := idPrefix.FindStringSubmatch(name); m != nil {
		doc.ID = m[1]
		title = m[2]
	}
	doc.Title = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(title))
	return doc
}
