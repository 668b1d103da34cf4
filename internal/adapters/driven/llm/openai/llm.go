// Package openai provides a chat model client for OpenAI-compatible servers
// such as llama.cpp, LM Studio, vLLM or Ollama's /v1 endpoint.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ChatModel = (*Client)(nil)

const provider = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultTimeout = domain.DefaultModelTimeout
)

// maxLineSize bounds one server-sent event line.
const maxLineSize = 1 << 20

// Config holds configuration for the OpenAI-compatible client.
type Config struct {
	// APIKey is sent as a bearer token when set. Local servers usually need none.
	APIKey string

	// BaseURL is the API base URL including the version prefix
	// (default: http://localhost:11434/v1).
	BaseURL string

	// Timeout bounds one whole request including the streamed body (default: 300s).
	Timeout time.Duration
}

// Client talks to /chat/completions and /models.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Stream      bool                `json:"stream"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionChunk is one streamed event.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// modelsResponse is the /models response format.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// ChatStream starts a streamed chat completion.
func (c *Client) ChatStream(ctx context.Context, req driven.ChatRequest) (driven.TokenStream, error) {
	msgs := make([]chatCompletionMsg, len(req.Messages))
	for i, msg := range req.Messages {
		msgs[i] = chatCompletionMsg{Role: msg.Role.String(), Content: msg.Content}
	}

	reqBody := chatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Stream:      true,
		MaxTokens:   req.Options.MaxTokens,
		Temperature: req.Options.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(ctx, provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, llm.NewStatusError(provider, resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &eventStream{body: resp.Body, scanner: scanner}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// eventStream reads "data:" lines until the [DONE] sentinel.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool

	closeOnce sync.Once
}

func (s *eventStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// Blank separators, comments and event/id fields.
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("openai: decode stream: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("openai: %s", chunk.Error.Message)
		}

		var text strings.Builder
		for _, choice := range chunk.Choices {
			text.WriteString(choice.Delta.Content)
		}
		return text.String(), nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("openai: read stream: %w", err)
	}
	return "", fmt.Errorf("openai: stream ended without [DONE]: %w", io.ErrUnexpectedEOF)
}

func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// ListModels returns the model identifiers the server offers.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.getModels(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("openai: decode models: %w", err)
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// Ping validates the server is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.getModels(ctx)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) getModels(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, llm.TransportError(ctx, provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, llm.NewStatusError(provider, resp)
	}
	return resp, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
