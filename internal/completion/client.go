package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Completer sends one chat-completion request to a generation backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Choice struct {
	Message Message `json:"message"`
}

// Response is the endpoint answer. Output is left raw because backends send
// it as a string, a list of strings or a list of objects.
type Response struct {
	Choices []Choice        `json:"choices"`
	Output  json.RawMessage `json:"output,omitempty"`
}

// Content returns the first choice's message content, if any.
func (r Response) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint status %d: %s", e.Code, e.Body)
}

// Client talks to a chat-completion shaped HTTP endpoint using bearer auth
// and a customerId header.
type Client struct {
	endpoint   string
	apiKey     string
	customerID string
	http       *http.Client
}

// NewClient creates a client. Per-call deadlines come from the context; the
// http client timeout only guards against hung connections.
func NewClient(endpoint, apiKey, customerID string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		customerID: customerID,
		http:       &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.customerID != "" {
		httpReq.Header.Set("customerId", c.customerID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send completion model=%s: %w", req.Model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return Response{}, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode completion response: %w", err)
	}
	return out, nil
}
