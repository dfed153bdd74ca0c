package domain

import (
	"fmt"
	"strings"
)

// EmotionalWeight is the coarse emotional load of a book.
type EmotionalWeight string

const (
	WeightLight       EmotionalWeight = "light"
	WeightMedium      EmotionalWeight = "medium"
	WeightHeavy       EmotionalWeight = "heavy"
	WeightDevastating EmotionalWeight = "devastating"
)

// SubjectGravity refines EmotionalWeight with how severe the subject matter is.
type SubjectGravity string

const (
	GravityLighthearted  SubjectGravity = "lighthearted"
	GravityContemplative SubjectGravity = "contemplative"
	GravitySerious       SubjectGravity = "serious"
	GravityTragic        SubjectGravity = "tragic"
	GravityTraumatic     SubjectGravity = "traumatic"
)

const (
	DefaultEmotionalWeight = WeightMedium
	DefaultSubjectGravity  = GravityContemplative
)

// BookAnalysis is the canonical mood/setting analysis of a book.
// Every collection is non-nil and optional strings are empty when absent.
type BookAnalysis struct {
	Mood                   []string        `json:"mood"`
	EmotionalWeight        EmotionalWeight `json:"emotional_weight"`
	SubjectGravity         SubjectGravity  `json:"subject_gravity"`
	SensitiveTopics        []string        `json:"sensitive_topics"`
	GeographicSetting      string          `json:"geographic_setting,omitempty"`
	TimePeriod             string          `json:"time_period,omitempty"`
	SuggestedArtists       []string        `json:"suggested_artists"`
	InstrumentPalette      []string        `json:"instrument_palette"`
	GenreSuggestions       []string        `json:"genre_suggestions"`
	AtmosphericDescriptors []string        `json:"atmospheric_descriptors"`
	ExplicitExclusions     []string        `json:"explicit_exclusions"`
}

// IsSensitive reports whether the analysis flagged any sensitive topic.
func (a BookAnalysis) IsSensitive() bool {
	return len(a.SensitiveTopics) > 0
}

// UserPreferences are fixed for the duration of one playlist generation.
type UserPreferences struct {
	InstrumentalOnly bool `json:"instrumental_only"`
	ForeignLyricsOk  bool `json:"foreign_lyrics_ok"`
}

// analysisKeys maps folded payload keys (lower-case, no separators) to canonical fields.
// Legacy keys from earlier prompt versions are accepted as aliases.
var analysisKeys = map[string]string{
	"mood":                   "mood",
	"moods":                  "mood",
	"emotionalweight":        "emotional_weight",
	"subjectgravity":         "subject_gravity",
	"sensitivetopics":        "sensitive_topics",
	"geographicsetting":      "geographic_setting",
	"settingplace":           "geographic_setting",
	"setting":                "geographic_setting",
	"timeperiod":             "time_period",
	"settingera":             "time_period",
	"era":                    "time_period",
	"suggestedartists":       "suggested_artists",
	"artists":                "suggested_artists",
	"instrumentpalette":      "instrument_palette",
	"instruments":            "instrument_palette",
	"genresuggestions":       "genre_suggestions",
	"musicgenres":            "genre_suggestions",
	"genres":                 "genre_suggestions",
	"culturalsound":          "cultural_sound",
	"atmosphericdescriptors": "atmospheric_descriptors",
	"vibes":                  "atmospheric_descriptors",
	"explicitexclusions":     "explicit_exclusions",
	"exclusions":             "explicit_exclusions",
}

// placeholderValues are optional-string answers that mean "no value".
var placeholderValues = map[string]struct{}{
	"":             {},
	"unknown":      {},
	"none":         {},
	"n/a":          {},
	"na":           {},
	"null":         {},
	"contemporary": {},
	"modern":       {},
}

// NormalizeAnalysis coerces a free-form analysis payload into the canonical schema.
// It never fails: missing or malformed fields take their defaults.
func NormalizeAnalysis(raw map[string]any) BookAnalysis {
	fields := make(map[string]any, len(raw))
	exact := make(map[string]bool, len(raw))
	for k, v := range raw {
		folded := foldKey(k)
		canonical, ok := analysisKeys[folded]
		if !ok || exact[canonical] {
			continue
		}
		// canonical keys take precedence over legacy aliases
		isExact := folded == foldKey(canonical)
		if _, seen := fields[canonical]; !seen || isExact {
			fields[canonical] = v
			exact[canonical] = isExact
		}
	}

	genres := coerceList(fields["genre_suggestions"])
	if sound := coerceString(fields["cultural_sound"]); sound != "" {
		genres = append(genres, sound)
	}

	return BookAnalysis{
		Mood:                   dedupeOrdered(coerceList(fields["mood"]), false),
		EmotionalWeight:        parseEmotionalWeight(coerceString(fields["emotional_weight"])),
		SubjectGravity:         parseSubjectGravity(coerceString(fields["subject_gravity"])),
		SensitiveTopics:        dedupeOrdered(coerceList(fields["sensitive_topics"]), true),
		GeographicSetting:      coerceString(fields["geographic_setting"]),
		TimePeriod:             coerceString(fields["time_period"]),
		SuggestedArtists:       dedupeOrdered(coerceList(fields["suggested_artists"]), false),
		InstrumentPalette:      dedupeOrdered(coerceList(fields["instrument_palette"]), false),
		GenreSuggestions:       dedupeOrdered(genres, false),
		AtmosphericDescriptors: dedupeOrdered(coerceList(fields["atmospheric_descriptors"]), false),
		ExplicitExclusions:     dedupeOrdered(coerceList(fields["explicit_exclusions"]), true),
	}
}

// DefaultAnalysis is the fallback used when the analysis provider is unavailable.
func DefaultAnalysis() BookAnalysis {
	return NormalizeAnalysis(nil)
}

// Normalize re-applies the canonical defaults to an analysis built in code.
func (a BookAnalysis) Normalize() BookAnalysis {
	return NormalizeAnalysis(map[string]any{
		"mood":                    a.Mood,
		"emotional_weight":        string(a.EmotionalWeight),
		"subject_gravity":         string(a.SubjectGravity),
		"sensitive_topics":        a.SensitiveTopics,
		"geographic_setting":      a.GeographicSetting,
		"time_period":             a.TimePeriod,
		"suggested_artists":       a.SuggestedArtists,
		"instrument_palette":      a.InstrumentPalette,
		"genre_suggestions":       a.GenreSuggestions,
		"atmospheric_descriptors": a.AtmosphericDescriptors,
		"explicit_exclusions":     a.ExplicitExclusions,
	})
}

func parseEmotionalWeight(s string) EmotionalWeight {
	switch w := EmotionalWeight(strings.ToLower(s)); w {
	case WeightLight, WeightMedium, WeightHeavy, WeightDevastating:
		return w
	default:
		return DefaultEmotionalWeight
	}
}

func parseSubjectGravity(s string) SubjectGravity {
	switch g := SubjectGravity(strings.ToLower(s)); g {
	case GravityLighthearted, GravityContemplative, GravitySerious, GravityTragic, GravityTraumatic:
		return g
	default:
		return DefaultSubjectGravity
	}
}

func foldKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

func coerceString(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []any:
		if len(val) > 0 {
			return coerceString(val[0])
		}
	case []string:
		if len(val) > 0 {
			s = val[0]
		}
	case nil:
		return ""
	default:
		s = fmt.Sprint(val)
	}
	s = strings.TrimSpace(s)
	if _, placeholder := placeholderValues[strings.ToLower(s)]; placeholder {
		return ""
	}
	return s
}

func coerceList(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		out = strings.Split(val, ",")
	case []string:
		out = append(out, val...)
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
	}
	return out
}

// dedupeOrdered trims, drops empties and removes case-insensitive duplicates,
// keeping first occurrence order. lower forces lower-case output.
func dedupeOrdered(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if lower {
			s = key
		}
		out = append(out, s)
	}
	return out
}
