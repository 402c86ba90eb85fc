package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/gerunddev/confluence2md/internal/batch"
	"github.com/gerunddev/confluence2md/internal/config"
	"github.com/gerunddev/confluence2md/internal/state"
	"github.com/gerunddev/confluence2md/internal/styles"
	"github.com/gerunddev/confluence2md/internal/tui"
)

// Batch converts every changed page of the input directory
func Batch(args []string) {
	cfg := loadConfig()

	var (
		force  bool
		dryRun bool
	)
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.StringVarP(&cfg.InputDir, "input", "i", cfg.InputDir, "directory of exported pages")
	fs.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "directory for Markdown files")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of parallel conversions")
	fs.BoolVarP(&force, "force", "f", false, "convert unchanged files too")
	fs.BoolVar(&dryRun, "dry-run", false, "convert without writing files or state")
	parseFlags(fs, args)

	if err := cfg.ExpandPaths(); err != nil {
		fail("Error expanding paths", err)
	}
	if err := cfg.Validate(); err != nil {
		fail("Invalid configuration", err)
	}

	if dryRun {
		fmt.Println(styles.Title.Render("confluence2md batch (DRY RUN)"))
	} else {
		fmt.Println(styles.Title.Render("confluence2md batch"))
	}
	fmt.Println()
	fmt.Printf("%s → %s\n", styles.Dim.Render(cfg.InputDir), styles.Dim.Render(cfg.OutputDir))
	if dryRun {
		fmt.Println(styles.Dim.Render("(dry run - no files will be modified)"))
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		fail("Error loading state", err)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()

	conv, err := newConverter(cfg, log)
	if err != nil {
		fail("Error creating converter", err)
	}

	runner := batch.NewRunner(conv, st, log, batch.Options{
		InputDir:    cfg.InputDir,
		OutputDir:   cfg.OutputDir,
		Extensions:  cfg.Extensions,
		Workers:     cfg.Workers,
		Force:       force,
		DryRun:      dryRun,
		FrontMatter: cfg.FrontMatter,
		SpaceID:     cfg.SpaceKey,
		Timeout:     cfg.Timeout,
		Exclude:     cfg.Excluded,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m := tui.InitBatchModel(cfg.InputDir, cancel)
	p := tea.NewProgram(m, tea.WithInput(os.Stdin))

	runner.OnProgress(func(r batch.FileResult) {
		p.Send(tui.FileMsg(r))
	})

	done := make(chan error, 1)
	go func() {
		result, err := runner.Run(ctx)
		p.Send(tui.BatchDoneMsg{Result: result, Err: err})
		done <- err
	}()

	if _, err := p.Run(); err != nil {
		fail("Error", err)
	}

	// Quitting early cancels the run; wait for in-flight files before saving.
	runErr := <-done

	if dryRun {
		return
	}
	if err := st.Save(config.StateFilePath()); err != nil {
		fail("Error saving state", err)
	}
	if runErr != nil {
		cleanup()
		os.Exit(1)
	}
}

// Status prints the state manifest and the last batch run
func Status() {
	cfg := loadConfig()

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		fail("Error loading state", err)
	}

	fmt.Println(styles.Title.Render("confluence2md status"))
	fmt.Println()
	fmt.Println(styles.KeyValue("Input", cfg.InputDir))
	fmt.Println(styles.KeyValue("Output", cfg.OutputDir))
	fmt.Println(styles.KeyValue("Tracked", len(st.Entries())))

	pending := 0
	files, err := batch.ScanDirectory(cfg.InputDir, cfg.Extensions)
	if err != nil {
		fmt.Println(styles.Warning.Render("⚠ Cannot scan input: " + err.Error()))
	}
	for _, f := range files {
		rel, _ := filepath.Rel(cfg.InputDir, f)
		if cfg.Excluded(rel) {
			continue
		}
		if changed, err := st.HasChanged(f); err == nil && changed {
			pending++
		}
	}
	fmt.Println(styles.Label.Render("Pending") + styles.Count(pending, false))

	failed, fallback := 0, 0
	for _, e := range st.Entries() {
		failed += e.Failed
		if e.Fallback {
			fallback++
		}
	}
	fmt.Println(styles.Label.Render("Failed macros") + styles.Count(failed, true))
	fmt.Println(styles.Label.Render("Fallbacks") + styles.Count(fallback, true))
	fmt.Println()

	lines, lastBatch, converted := ParseLogFile(cfg.LogFile, 10)
	if !lastBatch.IsZero() {
		ago := time.Since(lastBatch).Round(time.Second)
		fmt.Println(styles.KeyValue("Last batch", fmt.Sprintf("%s (%v ago, %d converted)", lastBatch.Format(time.DateTime), ago, converted)))
		fmt.Println()
	}
	fmt.Println(styles.Header.Render("Recent log"))
	for _, line := range lines {
		fmt.Println("  " + styles.Dim.Render(line))
	}
}

// Browse opens the converted document browser
func Browse() {
	cfg := loadConfig()

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		fail("Error loading state", err)
	}

	m := tui.InitBrowseModel(st.Entries(), cfg.InputDir)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fail("Error", err)
	}
}
