package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// OllamaClient is a minimal HTTP client for a local Ollama runtime. It
// implements Runtime so the pipeline can target a local model with the same
// request surface as the hosted backend.
type OllamaClient struct {
	httpClient *http.Client
	host       string
}

// NewOllamaClient creates a client targeting the given host
// (e.g. http://127.0.0.1:11434).
func NewOllamaClient(host string, httpTimeout time.Duration) *OllamaClient {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		host:       strings.TrimRight(host, "/"),
	}
}

// Structures aligned with Ollama /api/chat (non-streaming).
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate sends a chat request to Ollama and maps the reply onto the shared
// response type. Failures carry the same retryable classification as the
// hosted client: timeouts and 5xx retry, a missing model or an unreachable
// runtime do not.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	msgs := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}
	body := ollamaChatRequest{Model: req.Model, Messages: msgs, Stream: false}
	if req.Temperature > 0 {
		body.Options = map[string]any{"temperature": req.Temperature}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, &InferenceError{Retryable: true, Err: fmt.Errorf("http request: %w", err)}
		}
		return nil, &InferenceError{Err: &UnreachableError{Host: c.host, Err: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if resp.StatusCode == http.StatusNotFound {
			return nil, &InferenceError{Err: &ModelNotFoundError{APIError: apiErr}}
		}
		return nil, &InferenceError{Retryable: statusRetryable(resp.StatusCode), Err: apiErr}
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &GenerateResponse{
		Choices: []Choice{{Message: Message{Role: out.Message.Role, Content: out.Message.Content}}},
	}, nil
}
