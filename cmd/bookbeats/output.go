package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

// Exit codes.
const (
	exitError        = 1
	exitNoCandidates = 3
	exitNoQualifying = 4
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	dim     = color.New(color.Faint)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoCandidates):
		return exitNoCandidates
	case errors.Is(err, domain.ErrNoQualifyingTracks):
		return exitNoQualifying
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return exitError
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, book domain.Book, a domain.BookAnalysis) {
	heading.Fprintf(w, "%s", book.Title)
	if book.Author != "" {
		fmt.Fprintf(w, " by %s", book.Author)
	}
	fmt.Fprintln(w)

	row := func(label, value string) {
		if value == "" {
			return
		}
		dim.Fprintf(w, "  %-12s ", label)
		fmt.Fprintln(w, value)
	}
	row("mood", strings.Join(a.Mood, ", "))
	row("weight", string(a.EmotionalWeight))
	row("gravity", string(a.SubjectGravity))
	row("setting", a.GeographicSetting)
	row("period", a.TimePeriod)
	row("artists", strings.Join(a.SuggestedArtists, ", "))
	row("instruments", strings.Join(a.InstrumentPalette, ", "))
	row("genres", strings.Join(a.GenreSuggestions, ", "))
	row("atmosphere", strings.Join(a.AtmosphericDescriptors, ", "))
	if a.IsSensitive() {
		warn.Fprintf(w, "  %-12s ", "sensitive")
		fmt.Fprintln(w, strings.Join(a.SensitiveTopics, ", "))
	}
}

func printPlaylist(w io.Writer, p domain.Playlist) {
	heading.Fprintf(w, "%s", p.Book.Title)
	dim.Fprintf(w, "  %s  threshold %d  %d tracks\n", p.ID, p.Threshold, len(p.Tracks))
	for i, t := range p.Tracks {
		good.Fprintf(w, "%3d ", t.QualityScore)
		fmt.Fprintf(w, "%2d. %s - %s", i+1, t.Title, t.Artist)
		if t.Strategy != "" {
			dim.Fprintf(w, "  [%s]", t.Strategy)
		}
		if t.Features == nil {
			dim.Fprint(w, "  (no features)")
		}
		fmt.Fprintln(w)
	}
}

func printFeatureSummary(w io.Writer, f domain.AudioFeatures, n int) {
	if n == 0 {
		dim.Fprintln(w, "no audio features stored for this playlist")
		return
	}
	dim.Fprintf(w, "averages over %d tracks: ", n)
	fmt.Fprintf(w, "valence %.2f  energy %.2f  instrumentalness %.2f  tempo %.0f\n",
		f.Valence, f.Energy, f.Instrumentalness, f.Tempo)
}
