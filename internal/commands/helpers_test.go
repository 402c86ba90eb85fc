package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/confluence2md/internal/config"
	"github.com/gerunddev/confluence2md/internal/meta"
)

func TestParseLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "confluence2md.log")
	content := strings.Join([]string{
		"2025-11-27 14:11:50 INFO batch started input_dir=/in output_dir=/out workers=4",
		"2025-11-27 14:11:57 INFO batch completed converted=3 skipped=1 errors=0 duration=12ms",
		"2025-11-27 14:12:30 INFO file converted source=/in/a.xml dest=/out/a.md reason=changed",
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, lastBatch, converted := ParseLogFile(logPath, 2)
	if len(lines) != 2 {
		t.Errorf("Expected 2 recent lines, got %d", len(lines))
	}
	want := time.Date(2025, 11, 27, 14, 11, 57, 0, time.Local)
	if !lastBatch.Equal(want) {
		t.Errorf("Expected last batch %v, got %v", want, lastBatch)
	}
	if converted != 3 {
		t.Errorf("Expected 3 converted, got %d", converted)
	}
}

func TestParseLogFileMissing(t *testing.T) {
	lines, lastBatch, converted := ParseLogFile(filepath.Join(t.TempDir(), "missing.log"), 10)
	if len(lines) != 1 || !lastBatch.IsZero() || converted != 0 {
		t.Errorf("Unexpected result for missing log: %v %v %d", lines, lastBatch, converted)
	}
}

func TestEncodeMetadata(t *testing.T) {
	m := meta.Metadata{
		DocumentID:    "12345",
		ExternalLinks: []meta.ExternalLink{{Title: "docs", URL: "https://example.com"}},
	}

	data, err := encodeMetadata(m, "json")
	if err != nil {
		t.Fatalf("encodeMetadata failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid json: %v", err)
	}
	if decoded["document_id"] != "12345" {
		t.Errorf("Expected document_id 12345, got %v", decoded["document_id"])
	}

	data, err = encodeMetadata(m, "yaml")
	if err != nil {
		t.Fatalf("encodeMetadata failed: %v", err)
	}
	decoded = nil
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid yaml: %v", err)
	}
	if decoded["document_id"] != "12345" {
		t.Errorf("Expected document_id 12345, got %v", decoded["document_id"])
	}

	if _, err := encodeMetadata(m, "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestNewConverterDirectory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DirectoryFile = filepath.Join(t.TempDir(), "directory.yaml")
	if err := os.WriteFile(cfg.DirectoryFile, []byte("users: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write directory: %v", err)
	}
	if _, err := newConverter(cfg, nil); err == nil {
		t.Error("Expected error for malformed directory file")
	}

	cfg.DirectoryFile = ""
	if conv, err := newConverter(cfg, nil); err != nil || conv == nil {
		t.Errorf("Expected converter without directory, got %v", err)
	}
}
