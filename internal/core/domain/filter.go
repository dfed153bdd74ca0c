package domain

// Rejection reasons reported by the filter and scorer.
const (
	RejectBlacklist       = "blacklist"
	RejectInvalid         = "invalid"
	RejectDuration        = "duration"
	RejectHard            = "hard_reject"
	RejectMissingFeatures = "missing_features"
	RejectBelowThreshold  = "below_threshold"
)

// RejectReason reports why a candidate must be dropped before scoring, if at all.
func RejectReason(t Track, blacklist Blacklist, cfg ScoringConfig) (string, bool) {
	if t.ID == "" || t.Album == "" || t.Artist == "" {
		return RejectInvalid, true
	}
	if _, hit := blacklist.Match(t.SearchText()); hit {
		return RejectBlacklist, true
	}
	if cfg.HardDurationFilter && cfg.durationOutOfRange(t) {
		return RejectDuration, true
	}
	return "", false
}

// FilterTracks drops blacklisted and structurally invalid candidates, keeping order.
// The second return value counts rejections by reason.
func FilterTracks(candidates []Track, blacklist Blacklist, cfg ScoringConfig) ([]Track, map[string]int) {
	kept := make([]Track, 0, len(candidates))
	rejected := make(map[string]int)
	for _, t := range candidates {
		if reason, drop := RejectReason(t, blacklist, cfg); drop {
			rejected[reason]++
			continue
		}
		kept = append(kept, t)
	}
	return kept, rejected
}
