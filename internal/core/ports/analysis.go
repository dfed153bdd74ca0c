package ports

import (
	"context"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

// BookAnalyzer produces a canonical analysis for a book. Implementations
// return an error rather than a partial analysis; the orchestrator owns the fallback.
type BookAnalyzer interface {
	AnalyzeBook(ctx context.Context, book domain.Book) (domain.BookAnalysis, error)
}

// BookLookup resolves a free-text query to book metadata.
type BookLookup interface {
	LookupBook(ctx context.Context, query string) (domain.Book, error)
}
