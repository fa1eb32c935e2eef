// Package mcp exposes a chat session as Model Context Protocol tools.
package mcp

import (
	"context"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/assistant"
	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/models"
)

// Chatter is the session surface the tools need. *session.Session implements it.
type Chatter interface {
	Send(ctx context.Context, text string) assistant.Reply
	Tasks(ctx context.Context, filter string) ([]models.Task, error)
}

// HandleChat runs one chat turn.
func HandleChat(ctx context.Context, c Chatter, params ChatParams) *ToolResult {
	if strings.TrimSpace(params.Message) == "" {
		return &ToolResult{Tool: ToolChat, Error: "message is required"}
	}

	reply := c.Send(ctx, params.Message)
	res := &ToolResult{Tool: ToolChat, Content: FormatReply(reply)}
	if reply.IsError() {
		res.Error = reply.Text
	}
	return res
}

// HandleListTasks lists open tasks without touching the conversation.
func HandleListTasks(ctx context.Context, c Chatter, params ListTasksParams) *ToolResult {
	tasks, err := c.Tasks(ctx, strings.TrimSpace(params.Filter))
	if err != nil {
		return &ToolResult{Tool: ToolListTasks, Error: todoist.UserMessage(err)}
	}
	return &ToolResult{Tool: ToolListTasks, Content: FormatTasks(tasks)}
}
