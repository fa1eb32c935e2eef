package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers the TodoChat tools on a new MCP server.
func NewServer(c Chatter, version string, logger *slog.Logger) *mcpsdk.Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	impl := &mcpsdk.Implementation{Name: "todochat-mcp", Version: version}
	server := mcpsdk.NewServer(impl, &mcpsdk.ServerOptions{
		InitializedHandler: func(context.Context, *mcpsdk.ServerSession, *mcpsdk.InitializedParams) {
			logger.Info("client connected")
		},
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: string(ToolChat),
		Description: "Talk to the Todoist assistant. It can create one or several tasks, reschedule, reprioritize, " +
			"complete and list tasks. It may answer with a question (duplicate task, unclear priority, several matches); " +
			"send the user's answer as the next message.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ChatParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(HandleChat(ctx, c, params.Arguments)), nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        string(ToolListTasks),
		Description: `List open Todoist tasks. Use {"filter":"text"} to keep tasks whose content contains text.`,
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ListTasksParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(HandleListTasks(ctx, c, params.Arguments)), nil
	})

	return server
}

// Serve runs the server on stdin/stdout until ctx is done or the client leaves.
// stdout carries JSON-RPC only.
func Serve(ctx context.Context, server *mcpsdk.Server) error {
	return server.Run(ctx, mcpsdk.NewStdioTransport())
}

func toolResponse(res *ToolResult) *mcpsdk.CallToolResultFor[any] {
	if res.Error != "" {
		text := res.Content
		if text == "" {
			text = "Error: " + res.Error
		}
		return &mcpsdk.CallToolResultFor[any]{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
			IsError: true,
		}
	}
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: res.Content}},
	}
}
