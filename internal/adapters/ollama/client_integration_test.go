package ollama

import (
	"context"
	"os"
	"testing"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

// TestClient_AnalyzeBook_Integration tests against a live Ollama instance.
// This test is skipped unless RUN_AI_TESTS=true is set.
func TestClient_AnalyzeBook_Integration(t *testing.T) {
	if os.Getenv("RUN_AI_TESTS") != "true" {
		t.Skip("Skipping AI-dependent test (set RUN_AI_TESTS=true to enable)")
	}

	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = defaultBaseURL
	}

	client := NewClient(Options{BaseURL: ollamaHost, Model: os.Getenv("OLLAMA_MODEL")})

	tests := []struct {
		name string
		book domain.Book
	}{
		{
			name: "Setting-driven novel",
			book: domain.Book{Title: "The Forty Rules of Love", Author: "Elif Shafak"},
		},
		{
			name: "Heavy subject matter",
			book: domain.Book{Title: "A Little Life", Author: "Hanya Yanagihara"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := client.AnalyzeBook(context.Background(), tt.book)
			if err != nil {
				t.Fatalf("AnalyzeBook() error = %v", err)
			}

			if analysis.EmotionalWeight == "" {
				t.Error("expected a normalized emotional weight")
			}
			t.Logf("Analysis: %+v", analysis)
		})
	}
}
