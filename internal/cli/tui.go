package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/source"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// Document discovery
// =============================================================================

// document is a mergeable file offered by the picker.
type document struct {
	Path    string
	Kind    source.Kind
	Size    int64
	ModTime time.Time
}

// listDocuments returns the files in dir with a supported extension,
// sorted by name.
func listDocuments(dir string) ([]document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var docs []document
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kind, err := source.Detect(e.Name())
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, document{
			Path:    filepath.Join(dir, e.Name()),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(docs, func(a, b document) int { return strings.Compare(a.Path, b.Path) })
	return docs, nil
}

// pickDocument lets the user choose a document in dir. It returns "" if
// the user quit without choosing.
func pickDocument(dir string) (string, error) {
	docs, err := listDocuments(dir)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "no supported documents in %s", dir)
	}

	final, err := tea.NewProgram(newPickerModel(docs), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(pickerModel); ok && m.Selected != nil {
		return m.Selected.Path, nil
	}
	return "", nil
}

// =============================================================================
// pickerModel - Interactive document selection
// =============================================================================

// pickerModel is the bubbletea model for choosing an input document.
type pickerModel struct {
	Docs     []document
	Cursor   int
	Offset   int
	Height   int
	Selected *document
	now      func() time.Time
}

func newPickerModel(docs []document) pickerModel {
	return pickerModel{Docs: docs, Height: 15, now: time.Now}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Docs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			doc := m.Docs[m.Cursor]
			m.Selected = &doc
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Document"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ merge  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Docs))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Docs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		note := ""
		if d.Kind.NeedsConversion() {
			note = "converted"
		}
		rows = append(rows, []string{cursor, filepath.Base(d.Path), d.Kind.String(), formatSize(d.Size), formatRelativeTime(d.ModTime, m.now()), note})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Document", "Kind", "Size", "Modified", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if col >= 3 {
				base = base.Foreground(colorDim)
			}
			if m.Offset+row == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Docs))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
