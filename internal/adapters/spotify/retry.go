package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/metrics"
)

const (
	defaultMaxRetries = 3
	defaultBackoffMs  = 500
)

// statusError is a 5xx response surfaced as a breaker failure.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

type invalidator interface {
	Invalidate()
}

// doRequestWithRetry sends req with a bearer token through the rate limiter and
// circuit breaker. Only 429 responses are retried, honoring Retry-After. A 401
// drops the cached token and is retried once. Network errors and 5xx are returned
// immediately.
func (c *Client) doRequestWithRetry(req *http.Request, endpoint string) (*http.Response, error) {
	ctx := req.Context()
	log := logging.Component(ctx, "spotify")
	refreshed := false

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("spotify adapter: request canceled: %w", err)
		}
		if err := c.authorize(req); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("spotify adapter: rate limiter: %w", err)
		}

		// #nosec G107 -- URL constructed from configured catalog base URL
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				drain(resp)
				return nil, &statusError{code: resp.StatusCode}
			}
			return resp, nil
		})
		c.record(endpoint, resp, err)

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("spotify adapter: %w", ports.ErrCircuitOpen)
			}
			return nil, fmt.Errorf("spotify adapter: request failed: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			inv, ok := c.tokens.(invalidator)
			if refreshed || !ok {
				return resp, nil
			}
			drain(resp)
			inv.Invalidate()
			refreshed = true
			log.Debug().Msg("token rejected, refreshing")
			continue
		case http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp)
			drain(resp)
			log.Warn().Int("attempt", attempt+1).Int("max_attempts", c.maxRetries).Dur("retry_after", retryAfter).Msg("rate limited")
			if attempt == c.maxRetries-1 {
				return nil, fmt.Errorf("spotify adapter: rate limited after %d attempts", c.maxRetries)
			}
			backoff := c.baseBackoff * time.Duration(1<<attempt)
			if retryAfter > 0 {
				backoff = retryAfter
			}
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("spotify adapter: request failed after %d attempts", c.maxRetries)
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, _, err := c.tokens.AccessToken(req.Context())
	if err != nil {
		return fmt.Errorf("spotify adapter: access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *Client) record(endpoint string, resp *http.Response, err error) {
	var se *statusError
	switch {
	case resp != nil:
		metrics.RecordCatalogRequest(endpoint, resp.StatusCode)
	case errors.As(err, &se):
		metrics.RecordCatalogRequest(endpoint, se.code)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogRequests.WithLabelValues(endpoint, "circuit_open").Inc()
	default:
		metrics.RecordCatalogRequest(endpoint, 0)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		until := time.Until(when)
		if until > 0 {
			return until
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
