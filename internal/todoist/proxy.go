package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProxyBackend posts operations to a proxy that already answers with envelopes.
// Each operation goes to {baseURL}/{op}.
type ProxyBackend struct {
	baseURL string
	client  *http.Client
}

// NewProxyBackend creates a proxy backend.
func NewProxyBackend(baseURL string, timeout time.Duration) (*ProxyBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("todoist proxy URL is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProxyBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Call implements Backend.
func (b *ProxyBackend) Call(ctx context.Context, op string, payload any) ([]byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}
