package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/TodoChat/models"
)

// Table renders rows under bold headers with fixed-width columns.
// Widths are measured in terminal cells, so wide runes line up.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // Max width per column (0 = auto)
}

// TaskTable builds a table of tasks: short ID, content, due, priority and labels.
func TaskTable(tasks []models.Task) *Table {
	t := &Table{Headers: []string{"ID", "Task", "Due", "Pri", "Labels"}, MaxWidth: 48}
	for _, task := range tasks {
		t.Rows = append(t.Rows, []string{
			TruncateID(task.ID),
			task.Content,
			task.DueText(),
			fmt.Sprintf("P%d", task.Priority),
			strings.Join(task.Labels, ", "),
		})
	}
	return t
}

// ColumnWidths calculates column widths from headers and content.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			widths[i] = min(widths[i], t.MaxWidth)
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var cells []string
	for i, h := range t.Headers {
		cells = append(cells, headerStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	var sep []string
	for _, w := range widths {
		sep = append(sep, StyleSubtle.Render(strings.Repeat("─", w)))
	}
	sb.WriteString(" " + strings.Join(sep, "──") + "\n")

	for _, row := range t.Rows {
		cells = cells[:0]
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = truncateCells(row[i], widths[i])
			}
			cells = append(cells, StyleText.Render(padRight(val, widths[i])))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

// truncateCells cuts s to at most width cells, ending in "…" when cut.
func truncateCells(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return strings.Repeat("…", width)
	}
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	return sb.String() + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// TruncateID shortens an ID for display (first 8 chars).
func TruncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
