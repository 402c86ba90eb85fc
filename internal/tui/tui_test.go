package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/confluence2md/internal/batch"
	"github.com/gerunddev/confluence2md/internal/state"
)

func TestBatchModelCountsProgress(t *testing.T) {
	var m tea.Model = InitBatchModel("/pages", nil)

	for _, status := range []batch.Status{batch.StatusConverted, batch.StatusConverted, batch.StatusSkipped, batch.StatusFailed} {
		m, _ = m.Update(FileMsg{Source: "/pages/1-a.xml", Status: status})
	}

	bm := m.(batchModel)
	if bm.converted != 2 || bm.skipped != 1 || bm.failed != 1 {
		t.Errorf("Expected 2/1/1, got %d/%d/%d", bm.converted, bm.skipped, bm.failed)
	}
	if !strings.Contains(bm.View(), "2 converted, 1 skipped, 1 failed") {
		t.Errorf("Unexpected view:\n%s", bm.View())
	}
}

func TestBatchModelQuitCancels(t *testing.T) {
	canceled := false
	m := InitBatchModel("/pages", func() { canceled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !canceled {
		t.Error("Expected cancel to be called")
	}
	if cmd == nil {
		t.Error("Expected quit command")
	}
}

func TestBatchModelDone(t *testing.T) {
	start := time.Now()
	res := &batch.Result{Converted: 2, Skipped: 1, StartTime: start, EndTime: start.Add(time.Second)}

	next, cmd := InitBatchModel("/pages", nil).Update(BatchDoneMsg{Result: res})
	if cmd == nil {
		t.Error("Expected quit command")
	}
	view := next.View()
	if !strings.Contains(view, "Converted 2 file(s)") || !strings.Contains(view, "1 unchanged") {
		t.Errorf("Unexpected summary:\n%s", view)
	}

	next, _ = InitBatchModel("/pages", nil).Update(BatchDoneMsg{Err: errors.New("boom")})
	if !strings.Contains(next.View(), "Batch failed: boom") {
		t.Errorf("Unexpected failure view:\n%s", next.View())
	}
}

func TestSummaryNothingToDo(t *testing.T) {
	if !strings.Contains(Summary(&batch.Result{}), "Nothing to convert") {
		t.Error("Expected nothing-to-convert summary")
	}
	if Summary(nil) != "" {
		t.Error("Expected empty summary for nil result")
	}
}

func TestBrowseModel(t *testing.T) {
	entries := []state.Entry{
		{Source: "/pages/100-guide.xml", FileState: state.FileState{Output: "/out/100-guide.md", DocumentID: "100", Title: "Guide"}},
		{Source: "/pages/sub/notes.xml", FileState: state.FileState{Output: "/out/sub/notes.md"}},
	}
	m := InitBrowseModel(entries, "/pages")

	if got := displayName(entries[0], "/pages"); got != "Guide" {
		t.Errorf("Expected title, got %q", got)
	}
	if got := displayName(entries[1], "/pages"); got != "sub/notes.xml" {
		t.Errorf("Expected relative path, got %q", got)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	bm := next.(browseModel)
	if !bm.preview || bm.selected == nil || bm.selected.DocumentID != "100" {
		t.Fatalf("Expected preview of first entry, got %+v", bm.selected)
	}
	if cmd == nil {
		t.Fatal("Expected preview load command")
	}
	if msg, ok := cmd().(PreviewMsg); !ok || msg.Err == nil {
		t.Errorf("Expected read error for missing output, got %+v", msg)
	}

	next, _ = bm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(browseModel).preview {
		t.Error("Expected esc to close the preview")
	}
}

func TestBrowseModelEmpty(t *testing.T) {
	m := InitBrowseModel(nil, "/pages")
	if !strings.Contains(m.View(), "No converted documents yet") {
		t.Errorf("Unexpected view:\n%s", m.View())
	}
}
