package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/josephgoksu/TodoChat/models"
)

// Turn is one prior message sent as conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request.
type Request struct {
	Message      string
	SystemPrompt string
	History      []Turn
}

// Completer returns the raw text an LLM produced for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// TurnsFromMessages converts chat messages into history turns.
func TurnsFromMessages(msgs []models.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// ChatCompleter sends requests to an Eino chat model.
type ChatCompleter struct {
	model model.BaseChatModel
}

// NewChatCompleter wraps an Eino chat model.
func NewChatCompleter(m model.BaseChatModel) *ChatCompleter {
	return &ChatCompleter{model: m}
}

// Complete implements Completer.
func (c *ChatCompleter) Complete(ctx context.Context, req Request) (string, error) {
	messages := BuildMessages(req)

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("llm generate: empty response")
	}
	return resp.Content, nil
}

// BuildMessages lays out the system prompt, history and the new user message.
func BuildMessages(req Request) []*schema.Message {
	messages := make([]*schema.Message, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, schema.SystemMessage(req.SystemPrompt))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case string(models.RoleAssistant):
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}
	return append(messages, schema.UserMessage(req.Message))
}
