package assistant

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/intent"
	"github.com/josephgoksu/TodoChat/models"
)

// ReplyKind tells the front-end how to present a reply.
type ReplyKind string

const (
	KindMessage             ReplyKind = "message" // conversational answer, nothing executed
	KindTaskCreated         ReplyKind = "task_created"
	KindTasksCreated        ReplyKind = "tasks_created"
	KindTaskUpdated         ReplyKind = "task_updated"
	KindTaskCompleted       ReplyKind = "task_completed"
	KindTaskList            ReplyKind = "task_list"
	KindConfirmationNeeded  ReplyKind = "confirmation_needed"
	KindClarificationNeeded ReplyKind = "clarification_needed"
	KindCancelled           ReplyKind = "cancelled"
	KindNotFound            ReplyKind = "not_found"
	KindError               ReplyKind = "error"
)

// Reply is the outcome of one user turn.
// This is the canonical response type used by both the REPL and MCP.
type Reply struct {
	Kind    ReplyKind      `json:"kind,omitempty"`
	Text    string         `json:"text,omitempty"`
	Ignored bool           `json:"ignored,omitempty"` // another turn was in progress; nothing happened
	Tasks   []models.Task  `json:"tasks,omitempty"`   // created, listed or candidate tasks
	Created int            `json:"created,omitempty"`
	Failed  int            `json:"failed,omitempty"`
	Intent  *intent.Result `json:"intent,omitempty"`

	// Err is the underlying failure for KindError replies.
	Err error `json:"-"`
}

// IsError reports whether the turn failed.
func (r Reply) IsError() bool { return r.Kind == KindError }

func bulletList(tasks []models.Task) string {
	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + t.String())
	}
	return sb.String()
}

func describePending(p models.PendingTask) string {
	s := fmt.Sprintf("%q", p.Content)
	if p.DueString != "" {
		s += " due " + p.DueString
	}
	return s
}

const helpText = `I can manage your Todoist tasks. Try:
- "Create a task: Buy groceries due tomorrow"
- "Create 2 tasks: "Call mom", "Pay rent""
- "Move Buy groceries to friday"
- "Complete Buy groceries"
- "List my tasks"`
