package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/assistant"
	"github.com/josephgoksu/TodoChat/models"
)

// FormatReply converts an assistant reply into compact Markdown for an MCP client.
func FormatReply(r assistant.Reply) string {
	if r.Ignored {
		return "Another message is still being processed. Try again in a moment."
	}

	var sb strings.Builder
	sb.WriteString(r.Text)

	// List replies already carry the tasks in Text.
	if len(r.Tasks) > 0 && r.Kind != assistant.KindTaskList {
		sb.WriteString("\n\n## Tasks\n")
		sb.WriteString(formatTaskLines(r.Tasks))
	}
	if r.Kind == assistant.KindConfirmationNeeded || r.Kind == assistant.KindClarificationNeeded {
		sb.WriteString("\n\n_Waiting for the user's answer; send it with the chat tool._")
	}
	return strings.TrimSpace(sb.String())
}

// FormatTasks converts a task list into Markdown.
func FormatTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "No open tasks."
	}
	return fmt.Sprintf("## Open tasks (%d)\n%s", len(tasks), formatTaskLines(tasks))
}

func formatTaskLines(tasks []models.Task) string {
	var sb strings.Builder
	for i, t := range tasks {
		// Format: 1. **Content** (due X, P2) `id`
		sb.WriteString(fmt.Sprintf("%d. **%s**", i+1, t.Content))
		var meta []string
		if due := t.DueText(); due != "" {
			meta = append(meta, "due "+due)
		}
		if t.Priority > models.PriorityNormal {
			meta = append(meta, fmt.Sprintf("P%d", t.Priority))
		}
		if len(t.Labels) > 0 {
			meta = append(meta, "@"+strings.Join(t.Labels, " @"))
		}
		if len(meta) > 0 {
			sb.WriteString(" (" + strings.Join(meta, ", ") + ")")
		}
		sb.WriteString(fmt.Sprintf(" `%s`\n", t.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}
