package commands

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/gerunddev/confluence2md/internal/config"
	"github.com/gerunddev/confluence2md/internal/styles"
)

// Config manages the configuration file: init, show or path
func Config(args []string) {
	var force bool
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.BoolVarP(&force, "force", "f", false, "overwrite an existing config file on init")
	parseFlags(fs, args)

	action := "show"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	switch action {
	case "init":
		path := config.ConfigPath()
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Println(styles.Warning.Render("⚠ Config already exists: " + path))
			fmt.Println(styles.Dim.Render("  Use --force to overwrite"))
			os.Exit(1)
		}
		if err := config.DefaultConfig().Save(); err != nil {
			fail("Error writing config", err)
		}
		fmt.Println(styles.Success.Render("✓ Config written to " + path))

	case "show":
		cfg := loadConfig()
		data, err := cfg.Marshal()
		if err != nil {
			fail("Error encoding config", err)
		}
		fmt.Println(styles.Dim.Render("# " + config.ConfigPath()))
		fmt.Print(string(data))
		if err := cfg.Validate(); err != nil {
			fmt.Println(styles.Error.Render("✗ Invalid: " + err.Error()))
			os.Exit(1)
		}

	case "path":
		fmt.Println(config.ConfigPath())

	default:
		fmt.Println(styles.Error.Render("✗ Unknown config action: " + action))
		fmt.Println(styles.Dim.Render("  Usage: confluence2md config [init|show|path]"))
		os.Exit(1)
	}
}
