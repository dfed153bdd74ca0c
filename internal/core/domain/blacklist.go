package domain

import (
	"sort"
	"strings"
)

// baseBlacklist excludes non-musical and out-of-place catalog content.
var baseBlacklist = []string{
	"comedy", "stand-up", "podcast", "audiobook", "spoken word", "audio book",
	"kids", "children", "nursery rhyme", "lullaby for babies",
	"christmas", "holiday", "xmas",
}

// somberBlacklist applies when the subject gravity is tragic or traumatic.
var somberBlacklist = []string{
	"party", "club", "dance pop", "edm", "dubstep", "hardstyle", "drum and bass",
	"upbeat", "celebration", "workout", "summer hits", "festival anthem",
}

// strictBlacklist applies when the analysis flags sensitive topics. It overlaps
// somberBlacklist and adds region-specific upbeat and celebratory genres.
var strictBlacklist = []string{
	"party", "club", "dance", "edm", "upbeat", "celebration", "wedding",
	"reggaeton", "dabke", "halay", "bhangra", "baile funk", "soca", "zouk",
	"turbo folk", "manele", "schlager", "happy hardcore",
}

// Blacklist is a sorted set of lower-case terms that disqualify a track by substring.
type Blacklist []string

// BuildBlacklist derives the denylist for one generation from the analysis.
// The result is deduplicated, lower-case and independent of input order.
func BuildBlacklist(a BookAnalysis) Blacklist {
	terms := make(map[string]struct{}, len(baseBlacklist)+len(strictBlacklist))
	add := func(list []string) {
		for _, t := range list {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				terms[t] = struct{}{}
			}
		}
	}

	add(baseBlacklist)
	if a.SubjectGravity == GravityTragic || a.SubjectGravity == GravityTraumatic {
		add(somberBlacklist)
	}
	if a.IsSensitive() {
		add(strictBlacklist)
	}
	add(a.ExplicitExclusions)

	out := make(Blacklist, 0, len(terms))
	for t := range terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Match returns the first term found as a substring of text (case-insensitive).
func (b Blacklist) Match(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, term := range b {
		if strings.Contains(text, term) {
			return term, true
		}
	}
	return "", false
}
