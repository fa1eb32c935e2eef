package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josephgoksu/TodoChat/models"
)

// ErrProxyFailure is returned when the proxy reports success=false.
var ErrProxyFailure = errors.New("llm proxy reported failure")

// ProxyClient talks to an HTTP LLM proxy that holds the provider credentials.
type ProxyClient struct {
	url    string
	client *http.Client
}

type proxyRequest struct {
	Message             string        `json:"message"`
	SystemPrompt        string        `json:"systemPrompt"`
	ConversationHistory []Turn        `json:"conversationHistory"`
	Tasks               []models.Task `json:"tasks"`
}

type proxyResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// NewProxyClient creates a client for the proxy endpoint at url.
func NewProxyClient(url string, timeout time.Duration) (*ProxyClient, error) {
	if url == "" {
		return nil, fmt.Errorf("LLM proxy URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProxyClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Complete implements Completer.
func (p *ProxyClient) Complete(ctx context.Context, req Request) (string, error) {
	payload := proxyRequest{
		Message:             req.Message,
		SystemPrompt:        req.SystemPrompt,
		ConversationHistory: req.History,
		Tasks:               []models.Task{},
	}
	if payload.ConversationHistory == nil {
		payload.ConversationHistory = []Turn{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("LLM proxy returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", ErrProxyFailure, out.Error)
	}
	return out.Response, nil
}
