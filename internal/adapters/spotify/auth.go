package spotify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const (
	defaultTokenSkew     = 60 * time.Second
	defaultTokenLifetime = time.Hour
	tokenRequestTimeout  = 15 * time.Second
)

// TokenCache holds a client-credentials token and refreshes it shortly before
// expiry. Concurrent refreshes collapse into a single token request.
type TokenCache struct {
	cfg *clientcredentials.Config

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
	skew  time.Duration
	now   func() time.Time
}

var _ ports.TokenSource = (*TokenCache)(nil)

func NewTokenCache(clientID, clientSecret, tokenURL string) *TokenCache {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &TokenCache{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		skew: defaultTokenSkew,
		now:  time.Now,
	}
}

// AccessToken returns the cached token while it is valid for longer than the
// refresh skew.
func (c *TokenCache) AccessToken(ctx context.Context) (string, time.Time, error) {
	if token, expiresAt, ok := c.cached(); ok {
		return token, expiresAt, nil
	}

	ch := c.group.DoChan("token", func() (any, error) {
		// A flight that finished since the check above already refreshed it.
		if token, expiresAt, ok := c.cached(); ok {
			return &oauth2.Token{AccessToken: token, Expiry: expiresAt}, nil
		}
		// The request is shared by every waiting caller, so it must not die
		// with the context of whichever caller started it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenRequestTimeout)
		defer cancel()
		return c.refresh(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", time.Time{}, res.Err
		}
		tok := res.Val.(*oauth2.Token)
		return tok.AccessToken, tok.Expiry, nil
	}
}

func (c *TokenCache) cached() (string, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" && c.now().Before(c.expiresAt.Add(-c.skew)) {
		return c.token, c.expiresAt, true
	}
	return "", time.Time{}, false
}

func (c *TokenCache) refresh(ctx context.Context) (*oauth2.Token, error) {
	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: token request failed: %w", err)
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = c.now().Add(defaultTokenLifetime)
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.expiresAt = tok.Expiry
	c.mu.Unlock()

	logging.Component(ctx, "spotify").Debug().Time("expires_at", tok.Expiry).Msg("access token refreshed")
	return tok, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
