// Package googlebooks resolves free-text book queries through the Google Books API.
package googlebooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultTimeout = 10 * time.Second
)

type Options struct {
	BaseURL string        `koanf:"base_url" json:"base_url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key" json:"-"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.BookLookup = (*Client)(nil)

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title       string   `json:"title"`
			Subtitle    string   `json:"subtitle"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: client, apiKey: opts.APIKey}
}

// LookupBook returns metadata for the first volume matching query.
func (c *Client) LookupBook(ctx context.Context, query string) (domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Book{}, fmt.Errorf("googlebooks: empty query")
	}

	params := map[string]string{
		"q":          query,
		"maxResults": "1",
		"printType":  "books",
	}
	if c.apiKey != "" {
		params["key"] = c.apiKey
	}

	var out volumesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/volumes")
	if err != nil {
		return domain.Book{}, fmt.Errorf("googlebooks: request failed: %w", err)
	}
	if resp.IsError() {
		return domain.Book{}, fmt.Errorf("googlebooks: unexpected status %d", resp.StatusCode())
	}
	if len(out.Items) == 0 {
		return domain.Book{}, fmt.Errorf("googlebooks: no volume for %q: %w", query, domain.ErrNotFound)
	}

	info := out.Items[0].VolumeInfo
	if info.Title == "" {
		return domain.Book{}, fmt.Errorf("googlebooks: volume for %q has no title: %w", query, domain.ErrNotFound)
	}
	return domain.Book{
		Title:       info.Title,
		Author:      strings.Join(info.Authors, ", "),
		Description: info.Description,
	}, nil
}
