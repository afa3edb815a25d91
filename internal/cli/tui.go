package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SonghaiFan/metroflow/pkg/store"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// SnapshotListModel - Interactive snapshot selection
// =============================================================================

// SnapshotListModel is the bubbletea model behind "store list -i".
type SnapshotListModel struct {
	Snapshots []store.Info
	Cursor    int
	Offset    int
	Height    int
	Selected  *store.Info

	now func() time.Time
}

// NewSnapshotListModel creates a picker over infos.
func NewSnapshotListModel(infos []store.Info) SnapshotListModel {
	return SnapshotListModel{Snapshots: infos, Height: 15, now: time.Now}
}

func (m SnapshotListModel) Init() tea.Cmd {
	return nil
}

func (m SnapshotListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Snapshots)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := len(m.Snapshots); n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		case "enter":
			if len(m.Snapshots) == 0 {
				return m, nil
			}
			info := m.Snapshots[m.Cursor]
			m.Selected = &info
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m SnapshotListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Snapshot"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ pull  q quit"))
	b.WriteString("\n\n")

	if len(m.Snapshots) == 0 {
		b.WriteString(listDimStyle.Render("  no snapshots stored"))
		b.WriteString("\n")
		return b.String()
	}

	now := time.Now
	if m.now != nil {
		now = m.now
	}

	end := min(m.Offset+m.Height, len(m.Snapshots))
	var rows [][]string
	for i := m.Offset; i < end; i++ {
		info := m.Snapshots[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, info.Name, formatSize(info.Size), formatRelativeTime(info.Updated, now())})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Size", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if m.Offset+row == m.Cursor {
				if col == 1 {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Foreground(colorGray).Bold(true)
			}
			if col == 1 {
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Snapshots))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
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
