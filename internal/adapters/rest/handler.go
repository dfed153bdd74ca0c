package rest

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewilliams-labs/bookbeats/internal/core/services"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const correlationHeader = "X-Request-ID"

// Options configures the HTTP surface.
type Options struct {
	RateLimit      int           `koanf:"rate_limit" json:"rate_limit" validate:"gte=0"`
	RateWindow     time.Duration `koanf:"rate_window" json:"rate_window"`
	AllowedOrigins []string      `koanf:"allowed_origins" json:"allowed_origins"`
	MaxTargetSize  int           `koanf:"max_target_size" json:"max_target_size" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{
		RateLimit:      30,
		RateWindow:     time.Minute,
		AllowedOrigins: []string{"*"},
		MaxTargetSize:  100,
	}
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      *services.Orchestrator
	router   *http.ServeMux
	handler  http.Handler
	validate *validator.Validate
	opts     Options
}

// NewHandler initializes the HTTP adapter, its routes and middleware.
func NewHandler(svc *services.Orchestrator, opts Options) *Handler {
	if opts.MaxTargetSize <= 0 {
		opts.MaxTargetSize = DefaultOptions().MaxTargetSize
	}

	h := &Handler{
		svc:      svc,
		router:   http.NewServeMux(),
		validate: newValidator(),
		opts:     opts,
	}
	h.routes()

	var chain http.Handler = h.router
	if opts.RateLimit > 0 {
		window := opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		chain = httprate.LimitByIP(opts.RateLimit, window)(chain)
	}
	if len(opts.AllowedOrigins) > 0 {
		chain = cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", correlationHeader},
			ExposedHeaders: []string{correlationHeader},
			MaxAge:         300,
		})(chain)
	}
	h.handler = withCorrelationID(chain)

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("POST /analysis", h.AnalyzeBook)
	h.router.HandleFunc("POST /playlists", h.CreatePlaylist)
	h.router.HandleFunc("GET /playlists/{id}", h.GetPlaylist)
	h.router.Handle("GET /metrics", promhttp.Handler())
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withCorrelationID tags each request with an ID, reusing the caller's when present.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" || len(id) > 64 {
			id = logging.GenerateCorrelationID()
		}
		ctx := logging.ContextWithCorrelationID(r.Context(), id)
		w.Header().Set(correlationHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.Component(ctx, "rest").Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
