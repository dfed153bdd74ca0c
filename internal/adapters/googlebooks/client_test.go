package googlebooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

func TestClient_LookupBook(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     domain.Book
		wantErr  error
		anyError bool
	}{
		{
			name:   "first volume",
			status: http.StatusOK,
			body: `{"totalItems":2,"items":[
				{"volumeInfo":{"title":"Snow","authors":["Orhan Pamuk","Maureen Freely"],"description":"An exiled poet returns to Turkey."}},
				{"volumeInfo":{"title":"Snow Crash","authors":["Neal Stephenson"]}}
			]}`,
			want: domain.Book{Title: "Snow", Author: "Orhan Pamuk, Maureen Freely", Description: "An exiled poet returns to Turkey."},
		},
		{
			name:    "no results",
			status:  http.StatusOK,
			body:    `{"totalItems":0}`,
			wantErr: domain.ErrNotFound,
		},
		{
			name:     "upstream error",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":{"code":503}}`,
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/volumes" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("q") != "snow pamuk" {
					t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
				}
				if r.URL.Query().Get("key") != "k" {
					t.Errorf("missing api key")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewClient(Options{BaseURL: srv.URL, APIKey: "k"}).LookupBook(context.Background(), "snow pamuk")

			if tt.wantErr != nil || tt.anyError {
				if err == nil {
					t.Fatal("expected an error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClient_LookupBook_EmptyQuery(t *testing.T) {
	if _, err := NewClient(Options{}).LookupBook(context.Background(), "  "); err == nil {
		t.Fatal("expected an error for an empty query")
	}
}
