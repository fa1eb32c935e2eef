package mcp

// ToolName identifies an MCP tool served by TodoChat.
type ToolName string

const (
	ToolChat      ToolName = "chat"
	ToolListTasks ToolName = "list_tasks"
)

// ChatParams defines the parameters for the chat tool.
type ChatParams struct {
	// Message is what the user said, e.g. "Create a task: Buy milk due tomorrow".
	Message string `json:"message"`
}

// ListTasksParams defines the parameters for the list_tasks tool.
type ListTasksParams struct {
	// Filter keeps tasks whose content contains it (case-insensitive).
	// Optional; empty lists every open task.
	Filter string `json:"filter,omitempty"`
}

// ToolResult is what a handler returns before it is wrapped for the protocol.
type ToolResult struct {
	Tool    ToolName `json:"tool"`
	Content string   `json:"content"`
	Error   string   `json:"error,omitempty"`
}
