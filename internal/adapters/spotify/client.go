package spotify

import (
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/metrics"
)

const (
	DefaultBaseURL  = "https://api.spotify.com/v1"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	breakerName = "spotify"
)

// Options configures the catalog client.
type Options struct {
	BaseURL      string        `koanf:"base_url" json:"base_url" validate:"omitempty,url"`
	TokenURL     string        `koanf:"token_url" json:"token_url" validate:"omitempty,url"`
	ClientID     string        `koanf:"client_id" json:"-"`
	ClientSecret string        `koanf:"client_secret" json:"-"`
	Market       string        `koanf:"market" json:"market" validate:"omitempty,len=2"`
	Timeout      time.Duration `koanf:"timeout" json:"timeout"`

	MaxRetries   int           `koanf:"max_retries" json:"max_retries" validate:"min=0,max=10"`
	RetryBackoff time.Duration `koanf:"retry_backoff" json:"retry_backoff"`

	RequestsPerSecond float64 `koanf:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" json:"burst" validate:"gte=0"`

	BreakerFailures uint32        `koanf:"breaker_failures" json:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" json:"breaker_timeout"`

	// AudioFeatures disables the audio-features endpoint when false.
	AudioFeatures bool `koanf:"audio_features" json:"audio_features"`
}

func DefaultOptions() Options {
	return Options{
		BaseURL:           DefaultBaseURL,
		TokenURL:          DefaultTokenURL,
		Market:            "US",
		Timeout:           10 * time.Second,
		MaxRetries:        defaultMaxRetries,
		RetryBackoff:      defaultBackoffMs * time.Millisecond,
		RequestsPerSecond: 10,
		Burst:             5,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
		AudioFeatures:     true,
	}
}

// Client is an HTTP client for the Spotify Web API catalog endpoints.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	market      string
	tokens      ports.TokenSource
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	maxRetries  int
	baseBackoff time.Duration
	features    bool
}

// compile-time interface assertions
var (
	_ ports.TrackSearcher   = (*Client)(nil)
	_ ports.FeatureProvider = (*Client)(nil)
)

// NewClient constructs a catalog client. Zero option values take defaults.
func NewClient(tokens ports.TokenSource, opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.Market == "" {
		opts.Market = def.Market
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = def.BreakerTimeout
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := max(opts.Burst, 1)

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		market:      opts.Market,
		tokens:      tokens,
		limiter:     rate.NewLimiter(limit, burst),
		breaker:     newBreaker(opts.BreakerFailures, opts.BreakerTimeout),
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.RetryBackoff,
		features:    opts.AudioFeatures,
	}
}

// NewClientWithBaseURL is a convenience constructor for tests and mirrors.
func NewClientWithBaseURL(tokens ports.TokenSource, baseURL string) *Client {
	opts := DefaultOptions()
	opts.BaseURL = baseURL
	return NewClient(tokens, opts)
}

func newBreaker(failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[*http.Response] {
	metrics.RecordBreakerState(breakerName, gobreaker.StateClosed)
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.WithComponent("spotify")
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.RecordBreakerState(name, to)
		},
	})
}
