// Package ollama provides an adapter for the Ollama LLM service.
// It analyzes books by sending a structured prompt to a local Ollama instance
// and normalizing the JSON reply into a domain BookAnalysis.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/prompt"
	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "deepseek-r1:8b"
	defaultTimeout = 60 * time.Second
)

// Options configures the Ollama client.
type Options struct {
	BaseURL string        `koanf:"base_url" json:"base_url" validate:"omitempty,url"`
	Model   string        `koanf:"model" json:"model"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.BookAnalyzer = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AnalyzeBook asks the model for a JSON analysis of book.
func (c *Client) AnalyzeBook(ctx context.Context, book domain.Book) (domain.BookAnalysis, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.BookAnalysis(book)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: %s", parsed.Error)
	}

	analysis, err := prompt.Decode(parsed.Message.Content)
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("ollama: %w", err)
	}

	logging.Component(ctx, "ollama").Debug().
		Str("model", c.model).
		Str("title", book.Title).
		Dur("elapsed", time.Since(start)).
		Msg("book analyzed")
	return analysis, nil
}
