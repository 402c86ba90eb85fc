package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/confluence2md/internal/diff"
	"github.com/gerunddev/confluence2md/internal/state"
	"github.com/gerunddev/confluence2md/internal/styles"
)

// PreviewMsg is sent when a rendered preview is ready
type PreviewMsg struct {
	Content string
	Err     error
}

type browseModel struct {
	table       table.Model
	viewport    viewport.Model
	entries     []state.Entry
	inputDir    string
	preview     bool
	selected    *state.Entry
	err         error
	width       int
	previewWrap int
}

// InitBrowseModel creates a browser over the converted documents recorded
// in the state manifest.
func InitBrowseModel(entries []state.Entry, inputDir string) browseModel {
	columns := []table.Column{
		{Title: "Page", Width: 40},
		{Title: "ID", Width: 10},
		{Title: "Macros", Width: 8},
		{Title: "Failed", Width: 8},
		{Title: "Tables", Width: 8},
		{Title: "Converted", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			displayName(e, inputDir),
			e.DocumentID,
			strconv.Itoa(e.Macros),
			strconv.Itoa(e.Failed),
			strconv.Itoa(e.Tables),
			e.ConvertedAt.Format("2006-01-02 15:04"),
		})
	}
	t.SetRows(rows)

	vp := viewport.New(100, 20)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		Padding(1)

	return browseModel{
		table:       t,
		viewport:    vp,
		entries:     entries,
		inputDir:    inputDir,
		previewWrap: 100,
	}
}

func displayName(e state.Entry, inputDir string) string {
	if e.Title != "" {
		return e.Title
	}
	if rel, err := filepath.Rel(inputDir, e.Source); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(e.Source)
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 10)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		m.previewWrap = msg.Width - 8

	case tea.KeyMsg:
		if m.preview {
			switch msg.String() {
			case "q", "esc":
				m.preview = false
				return m, nil
			case "up", "k", "down", "j", "pgup", "pgdown":
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k", "down", "j":
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case "enter", "p":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.entries) {
				m.selected = &m.entries[idx]
				m.preview = true
				m.viewport.SetContent(styles.Dim.Render("Rendering..."))
				return m, loadPreview(m.selected.Output, m.previewWrap)
			}
			return m, nil
		}

	case PreviewMsg:
		if msg.Err != nil {
			m.viewport.SetContent(styles.Error.Render("✗ " + msg.Err.Error()))
		} else {
			m.viewport.SetContent(msg.Content)
		}
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

// loadPreview reads a converted file and renders it with glamour.
func loadPreview(path string, width int) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return PreviewMsg{Err: fmt.Errorf("failed to read %s: %w", path, err)}
		}
		return PreviewMsg{Content: diff.Render(string(data), width)}
	}
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("confluence2md documents"))
	b.WriteString("\n\n")

	if m.err != nil {
		return styles.Error.Render("✗ Error: "+m.err.Error()) + "\n"
	}

	if m.preview && m.selected != nil {
		b.WriteString(styles.Label.Render("Preview"))
		b.WriteString(styles.Value.Render(m.selected.Output))
		b.WriteString("\n\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(styles.Help.Render("↑/k up • ↓/j down • esc/q back"))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.entries) == 0 {
		b.WriteString(styles.Dim.Render("No converted documents yet. Run 'confluence2md batch' first."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styles.Label.Render("Documents"))
	b.WriteString(styles.Value.Render(strconv.Itoa(len(m.entries))))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")
	b.WriteString(styles.Help.Render("↑/k up • ↓/j down • enter/p preview • q quit"))
	b.WriteString("\n")

	return b.String()
}
