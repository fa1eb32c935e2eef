package ui

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/assistant"
	"github.com/josephgoksu/TodoChat/models"
)

// RenderHeader renders the banner shown when a chat starts.
func RenderHeader(title, subtitle string) string {
	out := StyleHeader.Render(title)
	if subtitle != "" {
		out += "\n" + StyleSubtle.Render("  "+subtitle)
	}
	return out
}

// RenderMessage renders one history entry with its speaker prefix.
func RenderMessage(m models.Message) string {
	prefix := StylePrefixAssistant.Render("todochat ›")
	if m.Role == models.RoleUser {
		prefix = StylePrefixUser.Render("you ›")
	}
	line := prefix + " " + StyleText.Render(m.Content)
	if m.Status == models.StatusError {
		line += " " + StyleError.Render("(not delivered)")
	}
	return line
}

// RenderHistory renders a message window, oldest first.
func RenderHistory(msgs []models.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, RenderMessage(m))
	}
	return strings.Join(lines, "\n")
}

// RenderReply renders the assistant's answer to one turn.
func RenderReply(r assistant.Reply) string {
	if r.Ignored {
		return StyleWarning.Render("Still working on your previous message. Please wait.")
	}

	prefix := StylePrefixAssistant.Render("todochat ›")
	switch r.Kind {
	case assistant.KindError:
		return StylePrefixError.Render("todochat ›") + " " + StyleError.Render(r.Text)
	case assistant.KindConfirmationNeeded, assistant.KindClarificationNeeded:
		return prefix + "\n" + StyleQuestionBox.Render(r.Text)
	case assistant.KindTaskCreated, assistant.KindTasksCreated, assistant.KindTaskUpdated, assistant.KindTaskCompleted:
		text := Icon("✓", StyleSuccess) + " " + StyleText.Render(r.Text)
		if r.Failed > 0 {
			text = Icon("!", StyleWarning) + " " + StyleText.Render(r.Text)
		}
		return prefix + " " + text
	case assistant.KindTaskList:
		if len(r.Tasks) == 0 {
			return prefix + " " + StyleText.Render(r.Text)
		}
		return prefix + " " + StyleText.Render(firstLine(r.Text)) + "\n" + TaskTable(r.Tasks).Render()
	default:
		return prefix + " " + StyleText.Render(r.Text)
	}
}

// RenderTasks renders a task list, or a placeholder when it is empty.
func RenderTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return StyleSubtle.Render("No open tasks.")
	}
	return fmt.Sprintf("%s\n%s", StyleTitle.Render(fmt.Sprintf("%d open tasks", len(tasks))), TaskTable(tasks).Render())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
