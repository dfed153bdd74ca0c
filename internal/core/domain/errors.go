package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("domain: not found")

	// ErrNoCandidates means no search strategy produced a single track.
	ErrNoCandidates = errors.New("no suitable tracks found, try a different book or adjust your preferences")

	// ErrNoQualifyingTracks means candidates existed but none cleared the score threshold.
	ErrNoQualifyingTracks = errors.New("no tracks passed quality validation, try adjusting your preferences")
)

// GenerationError carries the context of a terminal generation failure.
// It matches ErrNoCandidates or ErrNoQualifyingTracks through errors.Is.
type GenerationError struct {
	Kind       error
	Book       string
	Candidates int
	Threshold  int
}

func (e *GenerationError) Error() string {
	if e.Kind == ErrNoQualifyingTracks {
		return fmt.Sprintf("%v (book %q, %d candidates, threshold %d)", e.Kind, e.Book, e.Candidates, e.Threshold)
	}
	return fmt.Sprintf("%v (book %q)", e.Kind, e.Book)
}

func (e *GenerationError) Is(target error) bool {
	return target == e.Kind
}

func (e *GenerationError) Unwrap() error {
	return e.Kind
}
