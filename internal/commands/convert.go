package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/gerunddev/confluence2md/internal/batch"
	"github.com/gerunddev/confluence2md/internal/config"
	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/convert"
	"github.com/gerunddev/confluence2md/internal/diff"
	"github.com/gerunddev/confluence2md/internal/inspect"
	"github.com/gerunddev/confluence2md/internal/styles"
)

// convertFlags holds the document flags shared by convert and preview.
type convertFlags struct {
	id    string
	space string
	title string
}

func (f *convertFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&f.id, "id", "", "document id (default: numeric file name prefix)")
	fs.StringVar(&f.space, "space", cfg.SpaceKey, "space key used to resolve page links")
	fs.StringVar(&f.title, "title", "", "title rendered as a level-one heading")
}

// document reads path and applies the flag overrides.
func (f *convertFlags) document(path string) (convert.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return convert.Document{}, fmt.Errorf("failed to read page: %w", err)
	}
	if f.space != "" {
		if err := confluence.ValidateSpaceKey(f.space); err != nil {
			return convert.Document{}, err
		}
	}
	doc := batch.DocumentFor(path, string(data), f.space)
	if f.id != "" {
		if err := confluence.ValidatePageID(f.id); err != nil {
			return convert.Document{}, err
		}
		doc.ID = f.id
	}
	if f.title != "" {
		doc.Title = f.title
	}
	return doc, nil
}

// Convert converts a single page
func Convert(args []string) {
	cfg := loadConfig()

	var (
		flags       convertFlags
		output      string
		metaFormat  string
		frontMatter bool
	)
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags.register(fs, cfg)
	fs.StringVarP(&output, "output", "o", "", "output file (default: page file with .md, - for stdout)")
	fs.BoolVar(&frontMatter, "front-matter", cfg.FrontMatter, "prepend YAML front matter with metadata")
	fs.StringVar(&metaFormat, "meta", "", "also write metadata to a sidecar file (json or yaml)")
	parseFlags(fs, args)

	if fs.NArg() != 1 {
		fmt.Println(styles.Error.Render("✗ Usage: confluence2md convert <file> [options]"))
		os.Exit(1)
	}
	path := fs.Arg(0)

	doc, err := flags.document(path)
	if err != nil {
		fail("Error reading page", err)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()

	conv, err := newConverter(cfg, log)
	if err != nil {
		fail("Error creating converter", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	res, err := conv.Convert(ctx, doc)
	if err != nil {
		fail("Error converting page", err)
	}

	md := res.Markdown + "\n"
	if frontMatter {
		if md, err = convert.WithFrontMatter(doc, res); err != nil {
			fail("Error writing front matter", err)
		}
	}

	var metaData []byte
	if metaFormat != "" {
		if metaData, err = encodeMetadata(res.Metadata, metaFormat); err != nil {
			fail("Error encoding metadata", err)
		}
	}

	if output == "-" {
		fmt.Print(md)
		if metaData != nil {
			fmt.Fprint(os.Stderr, string(metaData))
		}
		return
	}

	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		fail("Error creating output directory", err)
	}
	if err := os.WriteFile(output, []byte(md), 0644); err != nil {
		fail("Error writing markdown", err)
	}

	fmt.Println(styles.Success.Render("✓ Converted " + filepath.Base(path)))
	fmt.Println(styles.KeyValue("Output", output))
	if metaData != nil {
		sidecar := strings.TrimSuffix(output, filepath.Ext(output)) + ".meta." + metaFormat
		if err := os.WriteFile(sidecar, metaData, 0644); err != nil {
			fail("Error writing metadata", err)
		}
		fmt.Println(styles.KeyValue("Metadata", sidecar))
	}
	printStats(res)
}

func printStats(res *convert.Result) {
	s := res.Stats
	fmt.Println(styles.Label.Render("Macros") + styles.Count(s.Macros.Processed, false) + styles.Dim.Render(" processed, ") + styles.Count(s.Macros.Failed, true) + styles.Dim.Render(" failed"))
	fmt.Println(styles.Label.Render("Tables") + styles.Count(s.Tables.Converted, false) + styles.Dim.Render(" converted, ") + styles.Count(s.Tables.Skipped, true) + styles.Dim.Render(" skipped"))

	m := res.Metadata
	fmt.Println(styles.Label.Render("Links") + styles.Count(len(m.ExternalLinks), false) + styles.Dim.Render(" external, ") + styles.Count(len(m.InternalLinks), false) + styles.Dim.Render(" internal, ") + styles.Count(len(m.IssueLinks), false) + styles.Dim.Render(" issues"))
	fmt.Println(styles.Label.Render("Mentions") + styles.Count(len(m.UserMentions), false))
	fmt.Println(styles.Label.Render("Assets") + styles.Count(len(m.DiscoveredAssets), false) + styles.Dim.Render(fmt.Sprintf(" discovered, %d resolved", len(m.Assets))))
	if s.Fallback {
		fmt.Println(styles.Warning.Render("⚠ Page could not be parsed; fallback conversion used"))
	}
	fmt.Println(styles.Help.Render(fmt.Sprintf("Completed in %v", s.Duration)))
}

// Preview converts a page and renders the result in the terminal
func Preview(args []string) {
	cfg := loadConfig()

	var (
		flags convertFlags
		width int
	)
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	flags.register(fs, cfg)
	fs.IntVarP(&width, "width", "w", 100, "word wrap width")
	parseFlags(fs, args)

	if fs.NArg() != 1 {
		fmt.Println(styles.Error.Render("✗ Usage: confluence2md preview <file> [options]"))
		os.Exit(1)
	}

	doc, err := flags.document(fs.Arg(0))
	if err != nil {
		fail("Error reading page", err)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()

	conv, err := newConverter(cfg, log)
	if err != nil {
		fail("Error creating converter", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	res, err := conv.Convert(ctx, doc)
	if err != nil {
		fail("Error converting page", err)
	}

	fmt.Print(diff.Render(res.Markdown, width))
}

// Diff compares a fresh conversion with an existing Markdown file
func Diff(args []string) {
	cfg := loadConfig()

	var (
		space       string
		frontMatter bool
		raw         bool
	)
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.StringVar(&space, "space", cfg.SpaceKey, "space key used to resolve page links")
	fs.BoolVar(&frontMatter, "front-matter", cfg.FrontMatter, "include YAML front matter in the conversion")
	fs.BoolVar(&raw, "raw", false, "print the unified diff without rendering")
	parseFlags(fs, args)

	if fs.NArg() != 2 {
		fmt.Println(styles.Error.Render("✗ Usage: confluence2md diff <file> <existing.md>"))
		os.Exit(1)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()

	conv, err := newConverter(cfg, log)
	if err != nil {
		fail("Error creating converter", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	report, err := diff.Generate(ctx, conv, fs.Arg(0), fs.Arg(1), space, frontMatter)
	if err != nil {
		fail("Error generating diff", err)
	}

	if !report.Changed() {
		fmt.Println(styles.Success.Render("✓ " + filepath.Base(fs.Arg(1)) + " is up to date"))
		return
	}

	if raw {
		fmt.Print(report.Unified)
	} else {
		fmt.Print(report.Render())
	}
	fmt.Println(styles.Success.Render(fmt.Sprintf("+%d", report.Added)) + " " + styles.Error.Render(fmt.Sprintf("-%d", report.Removed)))
	cancel()
	cleanup()
	os.Exit(1)
}

// Inspect prints an inventory of the Storage Format constructs in a page
func Inspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	parseFlags(fs, args)

	if fs.NArg() != 1 {
		fmt.Println(styles.Error.Render("✗ Usage: confluence2md inspect <file>"))
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fail("Error reading page", err)
	}

	inv, err := inspect.Inspect(string(data))
	if err != nil {
		fail("Error inspecting page", err)
	}

	fmt.Println(styles.Title.Render(filepath.Base(fs.Arg(0))))
	fmt.Println()

	fmt.Println(styles.Header.Render("Macros"))
	if len(inv.Macros) == 0 {
		fmt.Println(styles.Dim.Render("  none"))
	}
	for _, m := range inv.Macros {
		line := "  " + styles.Label.Render(m.Name) + styles.Count(m.Count, false)
		if !m.Supported {
			line += " " + styles.Warning.Render("unsupported (fallback)")
		}
		fmt.Println(line)
	}
	fmt.Println()

	fmt.Println(styles.Header.Render("Content"))
	fmt.Println("  " + styles.Label.Render("Tables") + styles.Count(inv.Tables, false))
	fmt.Println("  " + styles.Label.Render("Nested tables") + styles.Count(inv.NestedTables, true))
	fmt.Println("  " + styles.Label.Render("Images") + styles.Count(inv.Images, false))
	fmt.Println("  " + styles.KeyValue("Words", inv.Words))
	fmt.Println()

	printList("Attachments", inv.Attachments)
	printList("Users", inv.Users)
	printList("Pages", inv.Pages)
	printList("Links", inv.Links)

	if unsupported := inv.Unsupported(); len(unsupported) > 0 {
		fmt.Println(styles.Warning.Render(fmt.Sprintf("⚠ %d macro(s) will use fallback output: %s", len(unsupported), strings.Join(unsupported, ", "))))
	}
}

func printList(title string, items []string) {
	fmt.Println(styles.Header.Render(fmt.Sprintf("%s (%d)", title, len(items))))
	for _, item := range items {
		fmt.Println("  " + styles.Dim.Render("• ") + item)
	}
	fmt.Println()
}
