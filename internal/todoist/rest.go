package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/josephgoksu/TodoChat/models"
)

// DefaultBaseURL is the Todoist REST API root.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// RESTBackend calls the Todoist REST API directly and wraps every reply into an envelope.
type RESTBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRESTBackend creates a backend authenticated with a Todoist API token.
func NewRESTBackend(baseURL, token string, timeout time.Duration) (*RESTBackend, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("todoist API token is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Call implements Backend.
func (b *RESTBackend) Call(ctx context.Context, op string, payload any) ([]byte, error) {
	switch op {
	case OpGetTasks:
		// The client applies the content filter.
		return b.do(ctx, http.MethodGet, "/tasks", nil, true)

	case OpCreateTask:
		return b.do(ctx, http.MethodPost, "/tasks", payload, true)

	case OpUpdateTask:
		req, ok := payload.(UpdateTaskRequest)
		if !ok {
			return nil, fmt.Errorf("updateTask: unexpected payload %T", payload)
		}
		return b.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(req.TaskID), req.Updates, false)

	case OpCompleteTask:
		req, ok := payload.(CompleteTaskRequest)
		if !ok {
			return nil, fmt.Errorf("completeTask: unexpected payload %T", payload)
		}
		return b.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(req.TaskID)+"/close", nil, false)

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (b *RESTBackend) do(ctx context.Context, method, path string, body any, withData bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return json.Marshal(models.Envelope{
			Success: boolPtr(false),
			Error:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
		})
	}

	env := models.Envelope{Success: boolPtr(true)}
	if withData && len(bytes.TrimSpace(respBody)) > 0 {
		env.Data = json.RawMessage(respBody)
	}
	return json.Marshal(env)
}

func boolPtr(b bool) *bool { return &b }
