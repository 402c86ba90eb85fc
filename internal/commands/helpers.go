package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/confluence2md/internal/config"
	"github.com/gerunddev/confluence2md/internal/confluence"
	"github.com/gerunddev/confluence2md/internal/convert"
	"github.com/gerunddev/confluence2md/internal/logger"
	"github.com/gerunddev/confluence2md/internal/meta"
	"github.com/gerunddev/confluence2md/internal/styles"
)

// fail prints a styled error and exits
func fail(msg string, err error) {
	fmt.Println(styles.Error.Render("✗ " + msg + ": " + err.Error()))
	os.Exit(1)
}

// parseFlags parses args, exiting on error. -h prints usage and exits cleanly.
func parseFlags(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail("Error loading config", err)
	}
	return cfg
}

// newLogger opens the configured log file. If it cannot be opened, logging
// is disabled with a warning.
func newLogger(cfg *config.Config) (*logger.Logger, func()) {
	if cfg.LogFile == "" {
		return logger.Discard(), func() {}
	}
	l, cleanup, err := logger.NewFileLogger(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Println(styles.Warning.Render("⚠ Logging disabled: " + err.Error()))
		return logger.Discard(), func() {}
	}
	l.ConfigLoaded(cfg.InputDir, cfg.OutputDir, cfg.Workers)
	return l, cleanup
}

// newConverter builds a converter from the config, wiring the static
// directory file when one is configured.
func newConverter(cfg *config.Config, log *logger.Logger) (*convert.Converter, error) {
	opts := []convert.Option{
		convert.WithLogger(log),
		convert.WithAssetLinks(cfg.AssetLinks),
	}
	if cfg.DirectoryFile != "" {
		dir, err := confluence.LoadDirectory(cfg.DirectoryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load directory file: %w", err)
		}
		opts = append(opts, convert.WithDirectory(dir))
	}
	return convert.New(opts...), nil
}

// encodeMetadata serializes a metadata record as json or yaml.
func encodeMetadata(m meta.Metadata, format string) ([]byte, error) {
	if err := validation.Validate(format, validation.Required, validation.In("json", "yaml")); err != nil {
		return nil, fmt.Errorf("metadata format %q: %w", format, err)
	}
	if format == "json" {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(m)
}

// ParseLogFile reads the last N lines from the log file and extracts the
// most recent batch run
func ParseLogFile(logPath string, maxLines int) ([]string, time.Time, int) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return []string{"Unable to read log file"}, time.Time{}, 0
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	startIdx := 0
	if len(lines) > maxLines {
		startIdx = len(lines) - maxLines
	}
	recentLines := lines[startIdx:]

	var lastBatch time.Time
	converted := 0

	// Format: 2025-11-27 14:11:57 INFO batch completed converted=3 ...
	for i := len(recentLines) - 1; i >= 0; i-- {
		line := recentLines[i]
		if !strings.Contains(line, "batch completed") {
			continue
		}
		if len(line) > 19 {
			if t, err := time.ParseInLocation(time.DateTime, line[:19], time.Local); err == nil {
				lastBatch = t
			}
		}
		if idx := strings.Index(line, "converted="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx:], "converted=%d", &converted) //nolint:errcheck // best effort parsing
		}
		break
	}

	return recentLines, lastBatch, converted
}
