// Package prompt builds the book-analysis prompt shared by the LLM analyzers and
// decodes their free-form replies into a canonical analysis.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

// ErrEmptyReply is returned when the model produced no content.
var ErrEmptyReply = errors.New("prompt: empty reply")

// System frames the model's role. Providers without a system role prepend it.
const System = "You analyze books to build a reading soundtrack. " +
	"Be specific: name real artists, instruments and regional music traditions that fit the setting and themes. " +
	"Respond with ONLY a valid JSON object, no markdown and no commentary."

const schema = `{
  "mood": ["adjective", "adjective", "adjective"],
  "emotional_weight": "light | medium | heavy | devastating",
  "subject_gravity": "lighthearted | contemplative | serious | tragic | traumatic",
  "sensitive_topics": ["e.g. suicide, war, abuse; empty if none"],
  "geographic_setting": "specific place, e.g. 'Konya, Turkey'",
  "time_period": "specific era, e.g. '1950s'",
  "suggested_artists": ["real artist", "real artist"],
  "instrument_palette": ["instrument", "instrument"],
  "genre_suggestions": ["specific genre", "specific genre"],
  "atmospheric_descriptors": ["descriptor", "descriptor"],
  "explicit_exclusions": ["terms the soundtrack must avoid"]
}`

// BookAnalysis renders the user prompt for a book.
func BookAnalysis(book domain.Book) string {
	description := strings.TrimSpace(book.Description)
	if description == "" {
		description = "No description available"
	}
	author := strings.TrimSpace(book.Author)
	if author == "" {
		author = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Analyze this book and extract specific musical characteristics for the perfect reading soundtrack.\n\n")
	fmt.Fprintf(&b, "Book Title: %s\nAuthor: %s\nDescription: %s\n\n", book.Title, author, description)
	b.WriteString("Reply with a JSON object in exactly this shape:\n")
	b.WriteString(schema)
	b.WriteString("\n\nFlag sensitive_topics honestly; the soundtrack avoids upbeat music for heavy subjects.")
	return b.String()
}

// Decode parses a model reply into a normalized analysis. Markdown code fences
// and leading prose before the JSON object are tolerated.
func Decode(reply string) (domain.BookAnalysis, error) {
	body := StripFences(reply)
	if body == "" {
		return domain.BookAnalysis{}, ErrEmptyReply
	}
	if i := strings.IndexByte(body, '{'); i > 0 {
		body = body[i:]
	}
	if j := strings.LastIndexByte(body, '}'); j >= 0 && j < len(body)-1 {
		body = body[:j+1]
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return domain.BookAnalysis{}, fmt.Errorf("prompt: decode analysis: %w", err)
	}
	return domain.NormalizeAnalysis(raw), nil
}

// StripFences removes ```json ... ``` wrapping.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
