package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/sqlite"
	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/core/services"
)

// --- Mocks ---

// The handler depends on the concrete *Orchestrator, so tests build a real one
// over mock ports.

type mockSearcher struct {
	tracks []domain.Track
	err    error
}

func (m *mockSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tracks, nil
}

type mockAnalyzer struct {
	analysis domain.BookAnalysis
	err      error
}

func (m *mockAnalyzer) AnalyzeBook(ctx context.Context, book domain.Book) (domain.BookAnalysis, error) {
	if m.err != nil {
		return domain.BookAnalysis{}, m.err
	}
	return m.analysis, nil
}

type mockRepo struct {
	mu       sync.Mutex
	getErr   error
	playlist domain.Playlist
	saved    []domain.Playlist
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (domain.Playlist, error) {
	if m.getErr != nil {
		return domain.Playlist{}, m.getErr
	}
	if m.playlist.ID != "" {
		return m.playlist, nil
	}
	return domain.Playlist{ID: id, Book: domain.Book{Title: "Snow"}, Tracks: []domain.Track{}}, nil
}

func (m *mockRepo) Save(ctx context.Context, p domain.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockRepo) UpdatePreviewEnergy(ctx context.Context, trackID string, energy float64) error {
	return nil
}

// quietTracks score above the default threshold without audio features:
// a lexical cue plus the discovery bonus.
func quietTracks(n int) []domain.Track {
	out := make([]domain.Track, n)
	for i := range out {
		out[i] = domain.Track{
			ID:         fmt.Sprintf("t%d", i),
			Title:      fmt.Sprintf("Piano Nocturne %d", i),
			Artist:     "Quiet Ensemble",
			Album:      "Night Pieces",
			DurationMs: 240000,
			Popularity: 10,
		}
	}
	return out
}

func newTestHandler(searcher *mockSearcher, analyzer ports.BookAnalyzer, repo *mockRepo, opts Options) *Handler {
	svc := services.NewOrchestrator(analyzer, searcher, nil, repo, services.DefaultEngineConfig())
	return NewHandler(svc, opts)
}

func noLimits() Options {
	opts := DefaultOptions()
	opts.RateLimit = 0
	return opts
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(&mockSearcher{}, nil, &mockRepo{}, noLimits())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get(correlationHeader) == "" {
		t.Fatal("expected a generated correlation id")
	}
}

func TestHandler_CreatePlaylist(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		searcher       *mockSearcher
		expectedStatus int
		expectedBody   []string // substring matches
	}{
		{
			name:           "Success: generates playlist",
			body:           `{"title":"Snow","instrumental_only":false}`,
			searcher:       &mockSearcher{tracks: quietTracks(3)},
			expectedStatus: http.StatusCreated,
			expectedBody:   []string{`"title":"Snow"`, `"id":"t0"`, `"threshold":75`},
		},
		{
			name:           "Bad Request: missing title",
			body:           `{"instrumental_only":true}`,
			searcher:       &mockSearcher{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"title is required", `"code":"INVALID_REQUEST"`},
		},
		{
			name:           "Bad Request: malformed json",
			body:           `{invalid-json`,
			searcher:       &mockSearcher{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"Invalid request body"},
		},
		{
			name:           "Bad Request: negative target size",
			body:           `{"title":"Snow","target_size":-3}`,
			searcher:       &mockSearcher{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"target_size must be at least 1"},
		},
		{
			name:           "Bad Request: target size above limit",
			body:           `{"title":"Snow","target_size":500}`,
			searcher:       &mockSearcher{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"target_size must be at most 100"},
		},
		{
			name:           "Unsupported media type",
			body:           `title=Snow`,
			contentType:    "application/x-www-form-urlencoded",
			searcher:       &mockSearcher{},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "Unprocessable: no candidates",
			body:           `{"title":"Snow"}`,
			searcher:       &mockSearcher{err: errors.New("catalog down")},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   []string{`"code":"NO_CANDIDATES"`, domain.ErrNoCandidates.Error()},
		},
		{
			name: "Unprocessable: nothing clears the threshold",
			body: `{"title":"Snow"}`,
			searcher: &mockSearcher{tracks: []domain.Track{
				{ID: "p1", Title: "Chart Hit", Artist: "Pop Star", Album: "Hits", DurationMs: 200000, Popularity: 90},
			}},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   []string{`"code":"NO_QUALIFYING_TRACKS"`, `"threshold":75`, `"candidates":`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			h := newTestHandler(tt.searcher, nil, repo, noLimits())

			req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = "application/json"
			}
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			for _, want := range tt.expectedBody {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("expected body to contain %q, got %q", want, rec.Body.String())
				}
			}
			if tt.expectedStatus == http.StatusCreated {
				if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/playlists/") {
					t.Errorf("unexpected Location %q", loc)
				}
				if len(repo.saved) != 1 {
					t.Errorf("expected playlist to be saved once, got %d", len(repo.saved))
				}
			}
		})
	}
}

func TestHandler_AnalyzeBook(t *testing.T) {
	tests := []struct {
		name           string
		analyzer       *mockAnalyzer
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Success: returns normalized analysis",
			analyzer: &mockAnalyzer{analysis: domain.BookAnalysis{
				Mood:              []string{"melancholic"},
				GeographicSetting: "Kars, Turkey",
			}},
			body:           `{"title":"Snow"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `"geographic_setting":"Kars, Turkey"`,
		},
		{
			name:           "Analyzer failure falls back to defaults",
			analyzer:       &mockAnalyzer{err: errors.New("model offline")},
			body:           `{"title":"Snow"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `"emotional_weight":"medium"`,
		},
		{
			name:           "Bad Request: empty title",
			analyzer:       &mockAnalyzer{},
			body:           `{"title":""}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockSearcher{}, tt.analyzer, &mockRepo{}, noLimits())

			req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_GetPlaylist(t *testing.T) {
	tests := []struct {
		name           string
		playlistID     string
		mockGetErr     error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Server Error: repo get fails",
			playlistID:     "pl-1",
			mockGetErr:     errors.New("get failed"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "service: failed to load playlist",
		},
		{
			name:           "Not Found: missing playlist",
			playlistID:     "pl-404",
			mockGetErr:     domain.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"code":"NOT_FOUND"`,
		},
		{
			name:           "Success: returns playlist",
			playlistID:     "pl-2",
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"pl-2"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockSearcher{}, nil, &mockRepo{getErr: tt.mockGetErr}, noLimits())

			req := httptest.NewRequest(http.MethodGet, "/playlists/"+tt.playlistID, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_CorrelationIDEchoed(t *testing.T) {
	h := newTestHandler(&mockSearcher{}, nil, &mockRepo{}, noLimits())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(correlationHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(correlationHeader); got != "req-123" {
		t.Fatalf("expected caller's correlation id, got %q", got)
	}
}

func TestHandler_CreatePlaylist_ClientCanceled(t *testing.T) {
	h := newTestHandler(&mockSearcher{tracks: quietTracks(5)}, nil, &mockRepo{}, noLimits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/playlists", strings.NewReader(`{"title":"Snow"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != statusClientClosedRequest {
		t.Fatalf("expected status %d, got %d: %s", statusClientClosedRequest, rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if resp.Code != errCodeCanceled {
		t.Fatalf("expected code %s, got %s", errCodeCanceled, resp.Code)
	}
}

func TestHandler_RateLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.RateLimit = 2
	h := newTestHandler(&mockSearcher{}, nil, &mockRepo{}, opts)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestHandler_Metrics(t *testing.T) {
	h := newTestHandler(&mockSearcher{}, nil, &mockRepo{}, noLimits())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatal("expected prometheus exposition format")
	}
}

func TestHandler_PlaylistRoundTripWithSQLite(t *testing.T) {
	store, err := sqlite.NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer store.Close()

	svc := services.NewOrchestrator(nil, &mockSearcher{tracks: quietTracks(5)}, nil, store, services.DefaultEngineConfig())
	h := NewHandler(svc, noLimits())

	req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(`{"title":"Middlemarch","target_size":3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(created.Tracks))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlists/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var loaded domain.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.Book.Title != "Middlemarch" || len(loaded.Tracks) != 3 {
		t.Fatalf("unexpected stored playlist %+v", loaded)
	}
	for i := range created.Tracks {
		if loaded.Tracks[i].ID != created.Tracks[i].ID {
			t.Fatalf("track order not preserved at %d", i)
		}
	}
}
