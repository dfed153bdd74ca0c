package domain

import (
	"math"
	"strings"
)

// MoodTarget is the desired valence/energy point for a book.
type MoodTarget struct {
	Valence float64
	Energy  float64
}

var weightBaselines = map[EmotionalWeight]MoodTarget{
	WeightLight:       {Valence: 0.65, Energy: 0.55},
	WeightMedium:      {Valence: 0.45, Energy: 0.40},
	WeightHeavy:       {Valence: 0.30, Energy: 0.30},
	WeightDevastating: {Valence: 0.15, Energy: 0.20},
}

var gravityAdjustments = map[SubjectGravity]MoodTarget{
	GravityLighthearted:  {Valence: 0.10, Energy: 0.05},
	GravityContemplative: {Valence: 0, Energy: 0},
	GravitySerious:       {Valence: -0.05, Energy: -0.05},
	GravityTragic:        {Valence: -0.10, Energy: -0.05},
	GravityTraumatic:     {Valence: -0.15, Energy: -0.10},
}

// lexicalCues stand in for audio features when the catalog does not provide them.
var lexicalCues = []string{"instrumental", "piano", "ambient", "classical"}

// TargetMood derives the valence/energy target from the analysis.
func TargetMood(a BookAnalysis) MoodTarget {
	base, ok := weightBaselines[a.EmotionalWeight]
	if !ok {
		base = weightBaselines[DefaultEmotionalWeight]
	}
	adj := gravityAdjustments[a.SubjectGravity]
	return MoodTarget{
		Valence: clamp01(base.Valence + adj.Valence),
		Energy:  clamp01(base.Energy + adj.Energy),
	}
}

// MoodSimilarity is 1 - mean absolute distance over valence and energy.
func MoodSimilarity(f AudioFeatures, target MoodTarget) float64 {
	return 1 - (math.Abs(f.Valence-target.Valence)+math.Abs(f.Energy-target.Energy))/2
}

// Assessment is the scorer's verdict on one track.
type Assessment struct {
	Score   int
	Reason  string // set when the track was hard rejected
	Reduced bool   // scored with the lexical heuristic
}

// Rejected reports a hard reject.
func (a Assessment) Rejected() bool {
	return a.Reason != ""
}

// ScoreTrack returns the quality score of t in [0,100].
func ScoreTrack(t Track, prefs UserPreferences, a BookAnalysis, cfg ScoringConfig) int {
	return Assess(t, prefs, a, cfg).Score
}

// Assess scores t from its audio features, or from lexical cues when it has none.
// Without features an instrumental-only request admits only tracks with a cue.
func Assess(t Track, prefs UserPreferences, a BookAnalysis, cfg ScoringConfig) Assessment {
	if t.Features == nil {
		if prefs.InstrumentalOnly && !hasLexicalCue(t.SearchText()) {
			return Assessment{Reason: "no instrumental cue with instrumental-only preference", Reduced: true}
		}
		return Assessment{Score: clampScore(reducedScore(t, prefs, cfg)), Reduced: true}
	}
	f := *t.Features

	if prefs.InstrumentalOnly && f.Instrumentalness < cfg.MinInstrumentalness {
		return Assessment{Reason: "vocal track with instrumental-only preference"}
	}
	if f.Speechiness > cfg.MaxSpeechiness {
		return Assessment{Reason: "spoken word"}
	}
	if a.IsSensitive() && (f.Valence > cfg.SensitiveMaxValence || f.Energy > cfg.SensitiveMaxEnergy) {
		return Assessment{Reason: "too upbeat for sensitive subject"}
	}

	score := float64(cfg.BaseScore)
	if prefs.InstrumentalOnly {
		score += float64(cfg.InstrumentalBonus)
	}
	if a.IsSensitive() && f.Valence < cfg.SomberValenceBelow && f.Energy < cfg.SomberEnergyBelow {
		score += float64(cfg.SomberBonus)
	}
	score += MoodSimilarity(f, TargetMood(a)) * cfg.MoodWeight
	score += float64(commonAdjustments(t, cfg))

	return Assessment{Score: clampScore(int(math.Round(score)))}
}

func reducedScore(t Track, prefs UserPreferences, cfg ScoringConfig) int {
	score := cfg.BaseScore
	if hasLexicalCue(t.SearchText()) {
		score += cfg.LexicalCueBonus
		if prefs.InstrumentalOnly {
			score += cfg.LexicalInstrumentalBonus
		}
	}
	return score + commonAdjustments(t, cfg)
}

// commonAdjustments covers popularity, duration and the strategy boost.
func commonAdjustments(t Track, cfg ScoringConfig) int {
	adj := t.PriorityBoost
	if t.Popularity < cfg.DiscoveryPopularity {
		adj += cfg.DiscoveryBonus
	}
	if cfg.durationOutOfRange(t) {
		adj -= cfg.DurationPenalty
	}
	return adj
}

func hasLexicalCue(text string) bool {
	for _, cue := range lexicalCues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
