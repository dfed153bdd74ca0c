package spotify

// usableFeatures reports whether an audio-features entry carries real analysis.
// The catalog returns null or all-zero rows for tracks it has not analyzed.
func usableFeatures(f *spotifyAudioFeatures) bool {
	return f != nil && f.ID != "" && !allFeaturesZero(*f)
}

func allFeaturesZero(features spotifyAudioFeatures) bool {
	return features.Danceability == 0 &&
		features.Energy == 0 &&
		features.Valence == 0 &&
		features.Tempo == 0 &&
		features.Instrumentalness == 0 &&
		features.Acousticness == 0 &&
		features.Speechiness == 0
}
