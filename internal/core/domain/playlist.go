package domain

import (
	"errors"
	"time"
)

var ErrDuplicateTrack = errors.New("domain: duplicate track")

// Book identifies the book a playlist is generated for.
type Book struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// Playlist is the ranked result of one generation.
type Playlist struct {
	ID          string          `json:"id"`
	Book        Book            `json:"book"`
	Analysis    BookAnalysis    `json:"analysis"`
	Preferences UserPreferences `json:"preferences"`
	Threshold   int             `json:"threshold"`
	Tracks      []Track         `json:"tracks"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewPlaylist(id string, book Book) (*Playlist, error) {
	if id == "" || book.Title == "" {
		return nil, errors.New("domain: invalid argument")
	}
	return &Playlist{
		ID:     id,
		Book:   book,
		Tracks: []Track{},
	}, nil
}

// AddTrack appends a track to the playlist while preventing duplicate IDs.
func (p *Playlist) AddTrack(t Track) error {
	for _, ex := range p.Tracks {
		if ex.ID == t.ID {
			return ErrDuplicateTrack
		}
	}
	p.Tracks = append(p.Tracks, t)
	return nil
}
