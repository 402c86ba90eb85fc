package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		InputDir:   "/path/to/export",
		OutputDir:  "/path/to/markdown",
		LogFile:    "/tmp/test.log",
		LogLevel:   "info",
		Workers:    2,
		Extensions: []string{".xml"},
		Timeout:    30 * time.Second,
	}
}

func overrideConfigPath(t *testing.T, path string) {
	t.Helper()
	originalConfigPath := ConfigPath
	ConfigPath = func() string {
		return path
	}
	t.Cleanup(func() {
		ConfigPath = originalConfigPath
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.InputDir == "" {
		t.Error("Expected InputDir to be set")
	}
	if cfg.OutputDir == "" {
		t.Error("Expected OutputDir to be set")
	}
	if cfg.LogFile == "" {
		t.Error("Expected LogFile to be set")
	}
	if cfg.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", cfg.Workers)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout to be 30s, got %v", cfg.Timeout)
	}
	if !cfg.FrontMatter {
		t.Error("Expected FrontMatter to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{name: "empty input_dir", modify: func(c *Config) { c.InputDir = "" }, wantErr: true},
		{name: "empty output_dir", modify: func(c *Config) { c.OutputDir = "" }, wantErr: true},
		{name: "empty log_file", modify: func(c *Config) { c.LogFile = "" }, wantErr: true},
		{name: "unknown log level", modify: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "valid space key", modify: func(c *Config) { c.SpaceKey = "ENG2" }},
		{name: "lowercase space key", modify: func(c *Config) { c.SpaceKey = "eng" }, wantErr: true},
		{name: "no extensions", modify: func(c *Config) { c.Extensions = nil }, wantErr: true},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -5 * time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	testConfigPath := filepath.Join(tmpDir, "config.yaml")
	overrideConfigPath(t, testConfigPath)

	testCfg := validConfig()
	testCfg.Timeout = 45 * time.Second
	testCfg.SpaceKey = "ENG"
	testCfg.AssetLinks = true
	testCfg.ExcludePatterns = []string{"drafts/*"}

	if err := testCfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(testConfigPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Timeout != testCfg.Timeout {
		t.Errorf("Timeout mismatch: got %v, want %v", loadedCfg.Timeout, testCfg.Timeout)
	}
	if loadedCfg.SpaceKey != "ENG" {
		t.Errorf("Expected space key ENG, got %q", loadedCfg.SpaceKey)
	}
	if !loadedCfg.AssetLinks {
		t.Error("Expected AssetLinks to be true")
	}
	if loadedCfg.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", loadedCfg.Workers)
	}
	if len(loadedCfg.ExcludePatterns) != 1 || loadedCfg.ExcludePatterns[0] != "drafts/*" {
		t.Errorf("Unexpected exclude patterns: %v", loadedCfg.ExcludePatterns)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	overrideConfigPath(t, filepath.Join(tmpDir, "nonexistent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}

	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Timeout)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:  "partial config keeps defaults",
			input: "input_dir: /data/export\nworkers: 3\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.InputDir != "/data/export" {
					t.Errorf("Expected input dir /data/export, got %s", cfg.InputDir)
				}
				if cfg.Workers != 3 {
					t.Errorf("Expected 3 workers, got %d", cfg.Workers)
				}
				if cfg.Timeout != 30*time.Second {
					t.Errorf("Expected default timeout, got %v", cfg.Timeout)
				}
			},
		},
		{
			name:  "extensions are normalized",
			input: "extensions: [XML, .Html, '']\n",
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".xml" || cfg.Extensions[1] != ".html" {
					t.Errorf("Unexpected extensions: %v", cfg.Extensions)
				}
			},
		},
		{
			name:  "log level is lowercased",
			input: "log_level: DEBUG\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("Expected debug, got %s", cfg.LogLevel)
				}
			},
		},
		{name: "bad timeout", input: "timeout: soon\n", wantErr: true},
		{name: "bad yaml", input: "workers: [\n", wantErr: true},
		{name: "invalid space key", input: "space_key: eng\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	cfg := validConfig()
	cfg.ExcludePatterns = []string{"drafts/*", "*.tmp.xml"}

	tests := []struct {
		path string
		want bool
	}{
		{"drafts/page.xml", true},
		{"pages/page.xml", false},
		{"pages/page.tmp.xml", true},
		{"page.xml", false},
	}

	for _, tt := range tests {
		if got := cfg.Excluded(tt.path); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "tilde expansion", input: "~/test", contains: homeDir},
		{name: "tilde only", input: "~", contains: homeDir},
		{name: "absolute path", input: "/tmp/test", contains: "/tmp/test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := expandPath(tt.input)
			if err != nil {
				t.Fatalf("expandPath() error = %v", err)
			}
			if result == "" {
				t.Error("expandPath() returned empty string")
			}
			if tt.input[0] == '~' && result == tt.input {
				t.Errorf("Path was not expanded: %s", result)
			}
		})
	}
}

func TestConfigPathsExpanded(t *testing.T) {
	tmpDir := t.TempDir()
	overrideConfigPath(t, filepath.Join(tmpDir, "config.yaml"))

	testCfg := validConfig()
	testCfg.InputDir = "~/export"
	testCfg.OutputDir = "~/Documents/markdown"
	testCfg.LogFile = "~/confluence2md.log"
	testCfg.DirectoryFile = "~/directory.yaml"

	if err := testCfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.InputDir[0] == '~' {
		t.Error("InputDir was not expanded")
	}
	if loadedCfg.OutputDir[0] == '~' {
		t.Error("OutputDir was not expanded")
	}
	if loadedCfg.LogFile[0] == '~' {
		t.Error("LogFile was not expanded")
	}
	if loadedCfg.DirectoryFile[0] == '~' {
		t.Error("DirectoryFile was not expanded")
	}
}
