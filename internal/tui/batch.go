package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/confluence2md/internal/batch"
	"github.com/gerunddev/confluence2md/internal/styles"
)

// FileMsg is sent after each file of a batch run
type FileMsg batch.FileResult

// BatchDoneMsg is sent when the batch run completes
type BatchDoneMsg struct {
	Result *batch.Result
	Err    error
}

// batchModel is the Bubble Tea model for the batch progress display
type batchModel struct {
	spinner   spinner.Model
	status    string
	converted int
	skipped   int
	failed    int
	last      string
	complete  bool
	result    *batch.Result
	err       error
	cancel    func()
}

// InitBatchModel creates a new batch progress model. cancel is called when
// the user quits before the run completes.
func InitBatchModel(inputDir string, cancel func()) batchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return batchModel{
		spinner: s,
		status:  "Converting " + inputDir,
		cancel:  cancel,
	}
}

func (m batchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case FileMsg:
		switch msg.Status {
		case batch.StatusConverted:
			m.converted++
		case batch.StatusSkipped:
			m.skipped++
		default:
			m.failed++
		}
		m.last = filepath.Base(msg.Source)
		return m, nil

	case BatchDoneMsg:
		m.complete = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m batchModel) View() string {
	if m.complete {
		if m.err != nil && m.result == nil {
			return styles.Error.Render("✗ Batch failed: "+m.err.Error()) + "\n"
		}
		return Summary(m.result) + "\n"
	}

	progress := fmt.Sprintf("%d converted, %d skipped, %d failed", m.converted, m.skipped, m.failed)
	view := fmt.Sprintf("\n%s %s\n  %s\n", m.spinner.View(), m.status, styles.Dim.Render(progress))
	if m.last != "" {
		view += "  " + styles.Dim.Render("last: "+m.last) + "\n"
	}
	return view + "\n"
}

// Summary renders the outcome of a batch run
func Summary(r *batch.Result) string {
	if r == nil {
		return ""
	}
	duration := styles.Help.Render(fmt.Sprintf("Completed in %v", r.EndTime.Sub(r.StartTime).Round(time.Millisecond)))

	if r.Converted == 0 && len(r.Errors) == 0 {
		return styles.Success.Render("✓ Nothing to convert") + "\n" + duration
	}

	msg := styles.Success.Render(fmt.Sprintf("✓ Converted %d file(s)", r.Converted))
	if r.Skipped > 0 {
		msg += ", " + styles.Dim.Render(fmt.Sprintf("%d unchanged", r.Skipped))
	}
	if len(r.Errors) > 0 {
		msg += ", " + styles.Error.Render(fmt.Sprintf("%d error(s)", len(r.Errors)))
		for _, err := range r.Errors {
			msg += "\n  " + styles.Error.Render("✗ "+err.Error())
		}
	}
	return msg + "\n" + duration
}
