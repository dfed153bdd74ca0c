package domain

import "sort"

// DefaultTargetSize is the playlist length used when none is requested.
const DefaultTargetSize = 30

// SelectTracks deduplicates by track ID keeping the highest score seen, orders by
// score descending with ties in first-discovery order, and truncates to targetSize.
func SelectTracks(scored []Track, targetSize int) []Track {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}

	unique := make([]Track, 0, len(scored))
	index := make(map[string]int, len(scored))
	for _, t := range scored {
		if i, ok := index[t.ID]; ok {
			if t.QualityScore > unique[i].QualityScore {
				unique[i] = t
			}
			continue
		}
		index[t.ID] = len(unique)
		unique = append(unique, t)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].QualityScore > unique[j].QualityScore
	})

	if len(unique) > targetSize {
		unique = unique[:targetSize]
	}
	return unique
}

// AtOrAbove keeps the tracks scoring at least threshold, preserving order.
func AtOrAbove(tracks []Track, threshold int) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.QualityScore >= threshold {
			out = append(out, t)
		}
	}
	return out
}
