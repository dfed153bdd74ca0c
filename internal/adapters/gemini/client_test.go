package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/prompt"
	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

func TestClient_AnalyzeBook(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantPlace string
		wantErr   bool
	}{
		{
			name:      "fenced reply is decoded",
			status:    http.StatusOK,
			body:      "{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"```json\\n{\\\"mood\\\":[\\\"intimate\\\"],\\\"setting_place\\\":\\\"Paris, France\\\"}\\n```\"}]},\"finishReason\":\"STOP\"}]}",
			wantPlace: "Paris, France",
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"candidates":[]}`,
			wantErr: true,
		},
		{
			name:    "quota exceeded",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1beta/models/test-model:generateContent" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("x-goog-api-key") != "k" {
					t.Errorf("missing api key header")
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), "Giovanni") {
					t.Errorf("prompt missing book title")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Options{BaseURL: srv.URL, APIKey: "k", Model: "test-model"})
			got, err := client.AnalyzeBook(context.Background(), domain.Book{Title: "Giovanni's Room"})

			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if got.GeographicSetting != tt.wantPlace {
				t.Fatalf("GeographicSetting: got %q, want %q", got.GeographicSetting, tt.wantPlace)
			}
		})
	}
}

func TestClient_AnalyzeBook_NoCandidatesIsEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL, APIKey: "k"}).AnalyzeBook(context.Background(), domain.Book{Title: "x"})
	if !errors.Is(err, prompt.ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestClient_AnalyzeBook_MissingKey(t *testing.T) {
	_, err := NewClient(Options{}).AnalyzeBook(context.Background(), domain.Book{Title: "Snow"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
