package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gerunddev/confluence2md/internal/convert"
	"github.com/gerunddev/confluence2md/internal/state"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func setup(t *testing.T) (string, string) {
	t.Helper()
	in := filepath.Join(t.TempDir(), "export")
	out := filepath.Join(t.TempDir(), "markdown")
	writeFile(t, filepath.Join(in, "12345-Release-Notes.xml"), `<p>Shipped <strong>v2</strong></p>`)
	writeFile(t, filepath.Join(in, "team", "Onboarding.xml"), `<ul><li>laptop</li></ul>`)
	writeFile(t, filepath.Join(in, "notes.txt"), `ignored`)
	return in, out
}

func TestRunConvertsDirectory(t *testing.T) {
	in, out := setup(t)
	st := state.NewState()
	r := NewRunner(convert.New(), st, nil, Options{
		InputDir:   in,
		OutputDir:  out,
		Extensions: []string{".xml"},
		Workers:    2,
	})

	var (
		mu   sync.Mutex
		seen []string
	)
	r.OnProgress(func(f FileResult) {
		mu.Lock()
		seen = append(seen, filepath.Base(f.Source))
		mu.Unlock()
	})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Converted != 2 {
		t.Errorf("Expected 2 converted, got %d (%v)", result.Converted, result.Errors)
	}
	if len(seen) != 2 {
		t.Errorf("Expected 2 progress events, got %v", seen)
	}

	data, err := os.ReadFile(filepath.Join(out, "12345-Release-Notes.md"))
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if got := string(data); got != "# Release Notes\n\nShipped **v2**\n" {
		t.Errorf("Unexpected output: %q", got)
	}

	data, err = os.ReadFile(filepath.Join(out, "team", "Onboarding.md"))
	if err != nil {
		t.Fatalf("Expected nested output file: %v", err)
	}
	if !strings.Contains(string(data), "- laptop") {
		t.Errorf("Unexpected output: %q", data)
	}

	fs, ok := st.Get(filepath.Join(in, "12345-Release-Notes.xml"))
	if !ok {
		t.Fatal("Expected state entry")
	}
	if fs.DocumentID != "12345" || fs.Title != "Release Notes" {
		t.Errorf("Unexpected state entry: %+v", fs)
	}
}

func TestRunIsIncremental(t *testing.T) {
	in, out := setup(t)
	st := state.NewState()
	opts := Options{InputDir: in, OutputDir: out, Extensions: []string{".xml"}, Workers: 1}

	if _, err := NewRunner(convert.New(), st, nil, opts).Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	result, err := NewRunner(convert.New(), st, nil, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if result.Converted != 0 || result.Skipped != 2 {
		t.Errorf("Expected all files skipped, got %s", result)
	}

	opts.Force = true
	result, err = NewRunner(convert.New(), st, nil, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Forced run failed: %v", err)
	}
	if result.Converted != 2 {
		t.Errorf("Expected forced reconversion, got %s", result)
	}
}

func TestRunDryRun(t *testing.T) {
	in, out := setup(t)
	r := NewRunner(convert.New(), nil, nil, Options{
		InputDir:   in,
		OutputDir:  out,
		Extensions: []string{".xml"},
		DryRun:     true,
	})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Converted != 2 {
		t.Errorf("Expected 2 files in dry run, got %d", result.Converted)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Expected no output in dry run")
	}
}

func TestRunFrontMatterAndExclude(t *testing.T) {
	in, out := setup(t)
	r := NewRunner(convert.New(), nil, nil, Options{
		InputDir:    in,
		OutputDir:   out,
		Extensions:  []string{".xml"},
		FrontMatter: true,
		SpaceID:     "ENG",
		Exclude: func(rel string) bool {
			return strings.HasPrefix(filepath.ToSlash(rel), "team/")
		},
	})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Converted != 1 {
		t.Errorf("Expected 1 converted, got %d", result.Converted)
	}

	data, err := os.ReadFile(filepath.Join(out, "12345-Release-Notes.md"))
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	got := string(data)
	for _, want := range []string{"---\n", "title: Release Notes\n", "space: ENG\n", "document_id: \"12345\"\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected front matter to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunMissingInput(t *testing.T) {
	r := NewRunner(convert.New(), nil, nil, Options{InputDir: filepath.Join(t.TempDir(), "missing")})
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
}

func TestScanDirectory(t *testing.T) {
	in, _ := setup(t)

	files, err := ScanDirectory(in, []string{".XML", ".txt"})
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %v", files)
	}
}

func TestDocumentFor(t *testing.T) {
	tests := []struct {
		source string
		id     string
		title  string
	}{
		{"/x/12345-Release-Notes.xml", "12345", "Release Notes"},
		{"/x/12345.xml", "12345", ""},
		{"/x/98_team_page.html", "98", "team page"},
		{"/x/Onboarding-Guide.xml", "", "Onboarding Guide"},
	}

	for _, tt := range tests {
		doc := DocumentFor(tt.source, "<p/>", "ENG")
		if doc.ID != tt.id || doc.Title != tt.title {
			t.Errorf("DocumentFor(%q) = (%q, %q), want (%q, %q)", tt.source, doc.ID, doc.Title, tt.id, tt.title)
		}
		if doc.SpaceID != "ENG" {
			t.Errorf("Expected space ENG, got %q", doc.SpaceID)
		}
	}
}
