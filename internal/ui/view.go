package ui

import (
	"fmt"
	"strings"

	"github.com/bborn/tydo/internal/tree"
)

// View implements tea.Model.
func (m *Model) View() string {
	switch m.currentView {
	case viewHelp:
		if m.helpView == "" {
			m.helpView = renderHelp(m.width)
		}
		return m.helpView
	case viewConfirmDelete:
		if m.confirm != nil {
			return "\n" + m.confirm.View()
		}
	}
	return m.viewList()
}

func (m *Model) viewList() string {
	var b strings.Builder

	title := "TO-DO LIST"
	if m.hideDone {
		title += "  " + Dim.Render("(hiding completed)")
	}
	b.WriteString(Bold.Render(title))
	b.WriteString("\n")
	b.WriteString(Dim.Render(strings.Repeat("═", max(m.width, 10))))
	b.WriteString("\n")

	listHeight := m.listHeight()
	m.clampOffset(listHeight)

	if len(m.rows) == 0 {
		b.WriteString(Dim.Render("No tasks yet. Start typing to add one."))
		b.WriteString("\n")
	}
	end := min(m.offset+listHeight, len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < listHeight; i++ {
		b.WriteString("\n")
	}

	b.WriteString(Dim.Render(strings.Repeat("─", max(m.width, 10))))
	b.WriteString("\n")
	if m.typing {
		b.WriteString(Bold.Render(m.inputPrompt()))
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderRow(row tree.Row, selected bool) string {
	switch row.Kind {
	case tree.RowGroup:
		return m.renderGroupHeader(row, selected)
	case tree.RowChild:
		branch := IconBranch()
		if row.Last {
			branch = IconBranchEnd()
		}
		return "  " + Dim.Render(branch) + " " + m.renderTask(row, selected)
	default:
		return m.renderTask(row, selected)
	}
}

func (m *Model) renderGroupHeader(row tree.Row, selected bool) string {
	label := row.Group + ":"
	if row.Collapsed {
		label = fmt.Sprintf("%s [%d items] %s", label, row.Total, IconCollapsed())
	} else if row.DoneCount > 0 {
		label = fmt.Sprintf("%s (%d/%d)", label, row.DoneCount, row.Total)
	}

	style := Bold
	if row.AllDone() {
		style = Bold.Foreground(ColorGray)
	}
	if selected {
		style = style.Reverse(true)
	}
	return style.Render(label)
}

func (m *Model) renderTask(row tree.Row, selected bool) string {
	t := row.Task
	box := IconPending()
	if t.Done {
		box = IconDone()
	}

	text := t.DisplayText()
	if marker := t.Priority().Marker(); marker != "" {
		text = marker + " " + text
	}
	line := box + " " + text
	return taskStyle(t, selected).Render(line)
}

// listHeight is the number of rows available between the header and the
// input area.
func (m *Model) listHeight() int {
	// Title, separator, separator, input line.
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// clampOffset keeps the cursor inside the visible window.
func (m *Model) clampOffset(height int) {
	if m.cursor >= 0 {
		if m.cursor < m.offset {
			m.offset = m.cursor
		}
		if m.cursor >= m.offset+height {
			m.offset = m.cursor - height + 1
		}
	}
	if m.offset > len(m.rows)-height {
		m.offset = len(m.rows) - height
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) scrollIntoView() {
	m.clampOffset(m.listHeight())
}
