package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/confluence2md/internal/confluence"
)

// Config represents the confluence2md configuration
type Config struct {
	InputDir        string        `yaml:"input_dir"`
	OutputDir       string        `yaml:"output_dir"`
	LogFile         string        `yaml:"log_file"`
	LogLevel        string        `yaml:"log_level"`
	Workers         int           `yaml:"workers"`
	SpaceKey        string        `yaml:"space_key,omitempty"`
	DirectoryFile   string        `yaml:"directory_file,omitempty"`
	FrontMatter     bool          `yaml:"front_matter"`
	AssetLinks      bool          `yaml:"asset_links"`
	Extensions      []string      `yaml:"extensions"`
	ExcludePatterns []string      `yaml:"exclude_patterns,omitempty"`
	Timeout         time.Duration `yaml:"-"` // Stored as a duration string
}

// raw is the on-disk form; durations are kept as strings.
type raw struct {
	InputDir        string   `yaml:"input_dir"`
	OutputDir       string   `yaml:"output_dir"`
	LogFile         string   `yaml:"log_file"`
	LogLevel        string   `yaml:"log_level"`
	Workers         int      `yaml:"workers"`
	SpaceKey        string   `yaml:"space_key,omitempty"`
	DirectoryFile   string   `yaml:"directory_file,omitempty"`
	FrontMatter     bool     `yaml:"front_matter"`
	AssetLinks      bool     `yaml:"asset_links"`
	Extensions      []string `yaml:"extensions"`
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"`
	Timeout         string   `yaml:"timeout"`
}

var logLevels = []interface{}{"debug", "info", "warn", "error"}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		InputDir:        filepath.Join(home, "confluence-export"),
		OutputDir:       filepath.Join(home, "Documents", "confluence-markdown"),
		LogFile:         filepath.Join(os.TempDir(), "confluence2md.log"),
		LogLevel:        "info",
		Workers:         runtime.NumCPU(),
		FrontMatter:     true,
		Extensions:      []string{".xml", ".html"},
		ExcludePatterns: []string{},
		Timeout:         30 * time.Second,
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "confluence2md", "config.yaml")
	}
	return filepath.Join(home, ".config", "confluence2md", "config.yaml")
}

// StateFilePath returns the path to the batch state manifest
// Uses platform-specific XDG data directory
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "confluence2md", "state.json")
}

// Load reads configuration from the config directory
func Load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML config. Missing fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	def := DefaultConfig()
	r := raw{
		InputDir:        def.InputDir,
		OutputDir:       def.OutputDir,
		LogFile:         def.LogFile,
		LogLevel:        def.LogLevel,
		Workers:         def.Workers,
		FrontMatter:     def.FrontMatter,
		AssetLinks:      def.AssetLinks,
		Extensions:      def.Extensions,
		ExcludePatterns: def.ExcludePatterns,
		Timeout:         def.Timeout.String(),
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	timeout, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout format '%s': %w", r.Timeout, err)
	}

	// Set empty slice for exclude patterns if nil
	excludePatterns := r.ExcludePatterns
	if excludePatterns == nil {
		excludePatterns = []string{}
	}

	cfg := &Config{
		InputDir:        r.InputDir,
		OutputDir:       r.OutputDir,
		LogFile:         r.LogFile,
		LogLevel:        strings.ToLower(r.LogLevel),
		Workers:         r.Workers,
		SpaceKey:        r.SpaceKey,
		DirectoryFile:   r.DirectoryFile,
		FrontMatter:     r.FrontMatter,
		AssetLinks:      r.AssetLinks,
		Extensions:      normalizeExtensions(r.Extensions),
		ExcludePatterns: excludePatterns,
		Timeout:         timeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	configPath := ConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(raw{
		InputDir:        c.InputDir,
		OutputDir:       c.OutputDir,
		LogFile:         c.LogFile,
		LogLevel:        c.LogLevel,
		Workers:         c.Workers,
		SpaceKey:        c.SpaceKey,
		DirectoryFile:   c.DirectoryFile,
		FrontMatter:     c.FrontMatter,
		AssetLinks:      c.AssetLinks,
		Extensions:      c.Extensions,
		ExcludePatterns: c.ExcludePatterns,
		Timeout:         c.Timeout.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InputDir, validation.Required.Error("input_dir cannot be empty")),
		validation.Field(&c.OutputDir, validation.Required.Error("output_dir cannot be empty")),
		validation.Field(&c.LogFile, validation.Required.Error("log_file cannot be empty")),
		validation.Field(&c.LogLevel, validation.In(logLevels...).Error("log_level must be one of: debug, info, warn, error")),
		validation.Field(&c.Workers,
			validation.Required.Error("workers must be positive"),
			validation.Min(1).Error("workers must be positive"),
		),
		validation.Field(&c.SpaceKey, validation.By(func(value interface{}) error {
			key, _ := value.(string)
			if key == "" {
				return nil
			}
			return confluence.ValidateSpaceKey(key)
		})),
		validation.Field(&c.Extensions, validation.Required.Error("extensions cannot be empty")),
		validation.Field(&c.Timeout,
			validation.Required.Error("timeout must be positive"),
			validation.Min(time.Nanosecond).Error("timeout must be positive"),
		),
	)
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.InputDir, err = expandPath(c.InputDir)
	if err != nil {
		return fmt.Errorf("failed to expand input_dir: %w", err)
	}

	c.OutputDir, err = expandPath(c.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to expand output_dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	c.DirectoryFile, err = expandPath(c.DirectoryFile)
	if err != nil {
		return fmt.Errorf("failed to expand directory_file: %w", err)
	}

	return nil
}

// Excluded reports whether a path relative to the input directory matches
// one of the exclude patterns.
func (c *Config) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

// normalizeExtensions lowercases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
