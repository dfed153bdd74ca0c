package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestPlaylist_AddTrack(t *testing.T) {
	tests := []struct {
		name          string
		initialTracks []Track
		toAdd         Track
		wantErr       error
		wantLen       int
	}{
		{
			name:          "adds new track successfully",
			initialTracks: []Track{},
			toAdd:         Track{ID: "t1", Title: "Song One", Artist: "Artist A"},
			wantErr:       nil,
			wantLen:       1,
		},
		{
			name: "fails when adding track with duplicate ID",
			initialTracks: []Track{
				{ID: "t1", Title: "Existing", Artist: "Artist A"},
			},
			toAdd:   Track{ID: "t1", Title: "Same Track Other Strategy", Artist: "Artist A"},
			wantErr: ErrDuplicateTrack,
			wantLen: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPlaylist("pl-1", Book{Title: "Snow"})
			if err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
			p.Tracks = append(p.Tracks, tc.initialTracks...)

			err = p.AddTrack(tc.toAdd)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
			} else if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}

			if got := len(p.Tracks); got != tc.wantLen {
				t.Fatalf("expected %d tracks, got %d", tc.wantLen, got)
			}

			if tc.wantErr == nil {
				last := p.Tracks[len(p.Tracks)-1]
				if !reflect.DeepEqual(last, tc.toAdd) {
					t.Fatalf("last track mismatch: want %+v, got %+v", tc.toAdd, last)
				}
			}
		})
	}
}

func TestNewPlaylist_Validation(t *testing.T) {
	if _, err := NewPlaylist("", Book{Title: "Snow"}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := NewPlaylist("pl-1", Book{}); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestGenerationError_Is(t *testing.T) {
	err := error(&GenerationError{Kind: ErrNoQualifyingTracks, Book: "Snow", Candidates: 12, Threshold: 80})

	if !errors.Is(err, ErrNoQualifyingTracks) {
		t.Fatalf("expected errors.Is to match ErrNoQualifyingTracks")
	}
	if errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected no match for ErrNoCandidates")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Threshold != 80 {
		t.Fatalf("expected GenerationError with threshold 80, got %+v", genErr)
	}
}
