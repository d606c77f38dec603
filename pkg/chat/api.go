package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"glassfactory-chat/internal/dto"
)

// ChatAPI is the request-translation endpoint as seen from the client.
type ChatAPI interface {
	Send(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPClient talks to a running chat server. A zero timeout waits forever.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) Send(ctx context.Context, chatReq *dto.ChatRequest) (*dto.ChatResponse, error) {
	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out dto.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}
