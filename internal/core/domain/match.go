package domain

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/gosimple/unidecode"
)

const minArtistSimilarity = 0.8

var noiseTokens = map[string]struct{}{
	"feat":      {},
	"featuring": {},
	"ft":        {},
	"the":       {},
	"and":       {},
	"orchestra": {},
	"ensemble":  {},
}

// NormalizeName folds case and diacritics, drops bracketed segments and noise
// tokens, and collapses separators.
func NormalizeName(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	folded := strings.ToLower(unidecode.Unidecode(input))
	tokens := strings.Fields(cleanSeparators(stripBracketedSegments(folded)))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}

	return strings.Join(cleaned, " ")
}

// ArtistMatches reports whether the catalog artist is the requested artist,
// tolerating accents, casing and small spelling differences.
func ArtistMatches(requested string, candidates ...string) bool {
	want := NormalizeName(requested)
	if want == "" {
		return false
	}
	for _, c := range candidates {
		got := NormalizeName(c)
		if got == "" {
			continue
		}
		if got == want || similarity(want, got) >= minArtistSimilarity {
			return true
		}
	}
	return false
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}
