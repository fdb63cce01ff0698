// Package assistant is a small client for OpenAI-compatible chat completion
// endpoints, used by the chat panel next to the editor.
package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/CageChen/codehub/internal/logging"
	"github.com/CageChen/codehub/internal/metrics"
)

// Fallback is the reply used when the endpoint returns an empty message.
const Fallback = "Sorry, I couldn't generate a response."

// DefaultSystemPrompt is prepended to every conversation unless the config
// overrides it.
const DefaultSystemPrompt = `You are Echo, an intelligent and helpful AI assistant. You are designed to provide thoughtful, accurate, and engaging responses to user queries.

Key characteristics:
- Be conversational yet professional
- Provide clear, well-structured responses
- When explaining complex topics, break them down into digestible parts
- Be creative and adaptive to different conversation styles
- Maintain a friendly and approachable tone
- If you don't know something, admit it rather than guessing
- Offer practical solutions and actionable advice when appropriate

Your goal is to be genuinely helpful while maintaining an engaging conversational flow.`

var (
	// ErrNotConfigured is returned when the endpoint, key or model is unset.
	ErrNotConfigured = errors.New("assistant is not configured")
	// ErrNoResponse is returned when a completion has no choices.
	ErrNoResponse = errors.New("no response from assistant")
)

// StatusError reports a non-200 answer from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant API error: %d: %s", e.Code, e.Body)
}

// Role tags a chat message.
type Role string

// Roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Config holds the endpoint settings.
type Config struct {
	// BaseURL is the full chat completions URL.
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// Client talks to one chat completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// New creates a client. Zero temperature and max tokens take the defaults
// 0.7 and 16000.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 16000
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether endpoint, key and model are all set.
func (c *Client) IsConfigured() bool {
	return c.cfg.BaseURL != "" && c.cfg.APIKey != "" && c.cfg.Model != ""
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *Client) do(ctx context.Context, msgs []Message, stream bool) (*http.Response, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	all := make([]Message, 0, len(msgs)+1)
	all = append(all, Message{Role: RoleSystem, Content: c.cfg.SystemPrompt})
	all = append(all, msgs...)

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    all,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assistant request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// Send returns the complete reply to the conversation.
func (c *Client) Send(ctx context.Context, msgs []Message) (string, error) {
	reply, err := c.send(ctx, msgs)
	metrics.RecordAssistantRequest(false, err == nil)
	if err != nil {
		c.logger.Warn("assistant request failed", zap.Error(err))
	}
	return reply, err
}

func (c *Client) send(ctx context.Context, msgs []Message) (string, error) {
	resp, err := c.do(ctx, msgs, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoResponse
	}
	if out.Choices[0].Message.Content == "" {
		return Fallback, nil
	}
	return out.Choices[0].Message.Content, nil
}

// Stream sends the conversation and calls fn for each text fragment of the
// reply, in order. It returns when the end marker arrives, the body ends, or
// fn returns an error.
func (c *Client) Stream(ctx context.Context, msgs []Message, fn func(string) error) error {
	err := c.stream(ctx, msgs, fn)
	metrics.RecordAssistantRequest(true, err == nil)
	if err != nil {
		c.logger.Warn("assistant stream failed", zap.Error(err))
	}
	return err
}

func (c *Client) stream(ctx context.Context, msgs []Message, fn func(string) error) error {
	resp, err := c.do(ctx, msgs, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return DecodeStream(resp.Body, fn)
}

// DecodeStream reads newline-delimited "data: " records from r and calls fn
// with the delta text of each. A "[DONE]" record ends the stream. Records
// that are not valid chunks are skipped.
func DecodeStream(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimSpace(line[len("data: "):])
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := fn(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	return scanner.Err()
}
