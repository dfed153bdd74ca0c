// Package gemini analyzes books with the Gemini generateContent API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/prompt"
	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("gemini: api key not configured")

type Options struct {
	BaseURL string        `koanf:"base_url" json:"base_url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key" json:"-"`
	Model   string        `koanf:"model" json:"model"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

var _ ports.BookAnalyzer = (*Client)(nil)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{http: client, apiKey: opts.APIKey, model: opts.Model}
}

// AnalyzeBook requests a JSON analysis from the configured model.
func (c *Client) AnalyzeBook(ctx context.Context, book domain.Book) (domain.BookAnalysis, error) {
	if c.apiKey == "" {
		return domain.BookAnalysis{}, ErrMissingAPIKey
	}

	payload := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: prompt.System}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt.BookAnalysis(book)}}},
		},
	}
	payload.GenerationConfig.ResponseMimeType = "application/json"
	payload.GenerationConfig.Temperature = 0.4

	var out generateResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(payload).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return domain.BookAnalysis{}, fmt.Errorf("gemini: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return domain.BookAnalysis{}, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode())
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return domain.BookAnalysis{}, fmt.Errorf("gemini: %w", prompt.ErrEmptyReply)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	analysis, err := prompt.Decode(text.String())
	if err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("gemini: %w", err)
	}

	logging.Component(ctx, "gemini").Debug().
		Str("model", c.model).
		Str("title", book.Title).
		Str("finish_reason", out.Candidates[0].FinishReason).
		Msg("book analyzed")
	return analysis, nil
}
