package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskboard/internal/model"
)

const minLaneWidth = 26

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)

	var body string
	switch {
	case m.mode == ModeHelp:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, renderHelp())
	case m.mode == ModeAddTask || m.mode == ModeEditTask:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderModal(),
			lipgloss.WithWhitespaceChars(" "))
	case !m.loaded:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, HelpStyle.Render("Loading board..."))
	default:
		body = m.renderLanes(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) renderHeader() string {
	ws := m.board.Workspace
	title := strings.TrimSpace(ws.Icon + " " + ws.Name)
	if title == "" {
		title = "Taskboard"
	}
	s := HeaderStyle.Render(title)
	if m.filterText != "" {
		s += HelpStyle.Render("  filter: " + m.filterText)
	}
	return s
}

// visibleLanes returns the range of lanes that fit, keeping the current one
// on screen
func (m Model) visibleLanes() (first, last, width int) {
	n := len(m.board.Lanes)
	if n == 0 {
		return 0, -1, m.width
	}
	fit := m.width / minLaneWidth
	if fit < 1 {
		fit = 1
	}
	if fit > n {
		fit = n
	}
	first = 0
	if m.lane >= fit {
		first = m.lane - fit + 1
	}
	return first, first + fit - 1, m.width / fit
}

func (m Model) renderLanes(height int) string {
	if len(m.board.Lanes) == 0 {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			HelpStyle.Render("This board has no columns."))
	}

	first, last, width := m.visibleLanes()
	now := time.Now()
	var lanes []string
	for i := first; i <= last; i++ {
		lanes = append(lanes, m.renderLane(i, width, height, now))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, lanes...)
}

func (m Model) renderLane(i, width, height int, now time.Time) string {
	lane := m.board.Lanes[i]
	tasks := m.visible(i)
	inner := width - 4 // border and padding

	var b strings.Builder
	b.WriteString(laneTitleStyle(lane.Column).Render(truncate(lane.Column.Title, inner-5)))
	b.WriteString(HelpStyle.Render(fmt.Sprintf(" (%d)", len(tasks))))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", inner)))
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(HelpStyle.Render("empty"))
	}

	// Each card takes two lines
	rows := (height - 4) / 2
	start := 0
	if i == m.lane && rows > 0 && m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for ti := start; ti < len(tasks) && (rows <= 0 || ti < start+rows); ti++ {
		b.WriteString(m.renderCard(tasks[ti], i == m.lane && ti == m.cursor, inner, now))
		b.WriteString("\n")
	}

	style := LaneStyle
	if i == m.lane {
		style = LaneActiveStyle
	}
	return style.Width(width - 2).Height(height - 2).Render(b.String())
}

func (m Model) renderCard(t model.Task, selected bool, width int, now time.Time) string {
	style := TaskItemStyle
	cursor := "  "
	if selected {
		style = TaskItemSelectedStyle
		cursor = "❯ "
	}

	title := style.Render(cursor + truncate(t.Title, width-4))
	badge := FormatPriority(t.Priority)

	var meta []string
	if t.DueDate != nil {
		due := t.DueDate.Local().Format("Jan 2")
		if t.IsOverdue(now) {
			due = OverdueStyle.Render(due)
		}
		meta = append(meta, due)
	}
	if done, total := t.Progress(); total > 0 {
		meta = append(meta, fmt.Sprintf("☑ %d/%d", done, total))
	}

	return badge + " " + title + "\n    " + HelpStyle.Render(strings.Join(meta, "  "))
}

func (m Model) renderModal() string {
	title := "New task"
	if m.mode == ModeEditTask {
		title = "Edit title"
	} else if col := m.currentColumn(); col != nil {
		title = "New task in " + col.Title
	}
	content := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")
	return ModalStyle.Width(60).Render(content)
}

func (m Model) renderStatusBar() string {
	switch m.mode {
	case ModeFilter:
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View())
	case ModeConfirmDelete:
		title := ""
		if t := m.currentTask(); t != nil {
			title = t.Title
		}
		return StatusBarStyle.Width(m.width).Render(
			OverdueStyle.Render(fmt.Sprintf("Delete %q? [y/N]", truncate(title, 40))))
	}

	help := "h/l:column  j/k:task  H/L:move  J/K:reorder  a:add  e:edit  d:del  /:filter  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

func renderHelp() string {
	return `
╭──── Keyboard Shortcuts ────╮
│                            │
│  Navigation                │
│  ──────────                │
│  h/l     Previous/next col │
│  j/k     Down/up           │
│  g/G     Top/bottom        │
│                            │
│  Board                     │
│  ─────                     │
│  H/L     Move task left/rt │
│  J/K     Reorder down/up   │
│  a       Add task          │
│  e       Edit title        │
│  d       Delete            │
│  1-3     Low/medium/high   │
│  R       Refine with AI    │
│  /       Filter            │
│  r       Refresh           │
│                            │
│  ?       Toggle help       │
│  q       Quit              │
│                            │
╰────────────────────────────╯

     Press any key to close
`
}
