package main

import (
	"fmt"
	"os"

	"github.com/gerunddev/confluence2md/internal/commands"
	"github.com/gerunddev/confluence2md/internal/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "convert":
		commands.Convert(os.Args[2:])
	case "batch":
		commands.Batch(os.Args[2:])
	case "preview":
		commands.Preview(os.Args[2:])
	case "diff":
		commands.Diff(os.Args[2:])
	case "inspect":
		commands.Inspect(os.Args[2:])
	case "status":
		commands.Status()
	case "browse", "files":
		commands.Browse()
	case "config":
		commands.Config(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("confluence2md v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	usage := fmt.Sprintf(`confluence2md - Convert Confluence Storage Format pages to Markdown

Usage:
  confluence2md <command> [options]

Commands:
  convert     Convert a single page
  batch       Convert every changed page in the input directory
  preview     Convert a page and render it in the terminal
  diff        Compare a fresh conversion with an existing Markdown file
  inspect     List the macros, tables and links in a page
  status      Display batch state and recent log
  browse      Browse converted documents
  config      Manage the config file (init, show, path)
  version     Show version information
  help        Show this help message

Examples:
  confluence2md convert 12345-onboarding.xml -o onboarding.md
  confluence2md convert page.xml --id 12345 --space ENG --meta json
  confluence2md batch --input ~/export --output ~/notes
  confluence2md batch --dry-run
  confluence2md preview page.xml
  confluence2md diff page.xml page.md
  confluence2md inspect page.xml
  confluence2md config init

Configuration:
  Config file: %s
  State file:  %s

For more information, visit: https://github.com/gerunddev/confluence2md
`, config.ConfigPath(), config.StateFilePath())
	fmt.Print(usage)
}
