package domain

// ScoringConfig holds the tuning constants of the filter, scorer and thresholds.
type ScoringConfig struct {
	BaseScore int `koanf:"base_score" json:"base_score"`

	MinInstrumentalness float64 `koanf:"min_instrumentalness" json:"min_instrumentalness"`
	MaxSpeechiness      float64 `koanf:"max_speechiness" json:"max_speechiness"`
	SensitiveMaxValence float64 `koanf:"sensitive_max_valence" json:"sensitive_max_valence"`
	SensitiveMaxEnergy  float64 `koanf:"sensitive_max_energy" json:"sensitive_max_energy"`

	InstrumentalBonus        int     `koanf:"instrumental_bonus" json:"instrumental_bonus"`
	SomberBonus              int     `koanf:"somber_bonus" json:"somber_bonus"`
	SomberValenceBelow       float64 `koanf:"somber_valence_below" json:"somber_valence_below"`
	SomberEnergyBelow        float64 `koanf:"somber_energy_below" json:"somber_energy_below"`
	MoodWeight               float64 `koanf:"mood_weight" json:"mood_weight"`
	DiscoveryPopularity      int     `koanf:"discovery_popularity" json:"discovery_popularity"`
	DiscoveryBonus           int     `koanf:"discovery_bonus" json:"discovery_bonus"`
	DurationPenalty          int     `koanf:"duration_penalty" json:"duration_penalty"`
	MinDurationMinutes       float64 `koanf:"min_duration_minutes" json:"min_duration_minutes"`
	MaxDurationMinutes       float64 `koanf:"max_duration_minutes" json:"max_duration_minutes"`
	HardDurationFilter       bool    `koanf:"hard_duration_filter" json:"hard_duration_filter"`
	LexicalCueBonus          int     `koanf:"lexical_cue_bonus" json:"lexical_cue_bonus"`
	LexicalInstrumentalBonus int     `koanf:"lexical_instrumental_bonus" json:"lexical_instrumental_bonus"`

	MinScore          int `koanf:"min_score" json:"min_score"`
	SensitiveMinScore int `koanf:"sensitive_min_score" json:"sensitive_min_score"`
}

// DefaultScoringConfig returns the default tuning set.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore:                50,
		MinInstrumentalness:      0.70,
		MaxSpeechiness:           0.33,
		SensitiveMaxValence:      0.6,
		SensitiveMaxEnergy:       0.7,
		InstrumentalBonus:        30,
		SomberBonus:              20,
		SomberValenceBelow:       0.4,
		SomberEnergyBelow:        0.5,
		MoodWeight:               20,
		DiscoveryPopularity:      30,
		DiscoveryBonus:           10,
		DurationPenalty:          20,
		MinDurationMinutes:       1,
		MaxDurationMinutes:       10,
		HardDurationFilter:       false,
		LexicalCueBonus:          20,
		LexicalInstrumentalBonus: 10,
		MinScore:                 75,
		SensitiveMinScore:        80,
	}
}

// Threshold returns the minimum admissible score for the analysis.
func (c ScoringConfig) Threshold(a BookAnalysis) int {
	if a.IsSensitive() {
		return c.SensitiveMinScore
	}
	return c.MinScore
}

func (c ScoringConfig) durationOutOfRange(t Track) bool {
	m := t.DurationMinutes()
	return m < c.MinDurationMinutes || m > c.MaxDurationMinutes
}
