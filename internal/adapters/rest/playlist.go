package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

// statusClientClosedRequest is the nginx convention for a request the client abandoned.
const statusClientClosedRequest = 499

type createPlaylistRequest struct {
	Title            string `json:"title" validate:"required,max=300"`
	InstrumentalOnly bool   `json:"instrumental_only"`
	ForeignLyricsOk  bool   `json:"foreign_lyrics_ok"`
	TargetSize       int    `json:"target_size" validate:"omitempty,min=1"`
}

// CreatePlaylist handles POST /playlists
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.TargetSize > h.opts.MaxTargetSize {
		writeErrorWithCode(w, http.StatusBadRequest,
			fmt.Sprintf("target_size must be at most %d", h.opts.MaxTargetSize), errCodeInvalidRequest)
		return
	}

	prefs := domain.UserPreferences{
		InstrumentalOnly: req.InstrumentalOnly,
		ForeignLyricsOk:  req.ForeignLyricsOk,
	}
	playlist, err := h.svc.GenerateForTitle(r.Context(), req.Title, prefs, req.TargetSize)
	if err != nil {
		h.writeGenerationError(w, r, err)
		return
	}

	w.Header().Set("Location", "/playlists/"+playlist.ID)
	writeJSON(w, http.StatusCreated, playlist)
}

func (h *Handler) writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	var genErr *domain.GenerationError
	details := map[string]any{}
	if errors.As(err, &genErr) {
		details["book"] = genErr.Book
		details["candidates"] = genErr.Candidates
		details["threshold"] = genErr.Threshold
	}

	switch {
	case errors.Is(err, domain.ErrNoCandidates):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: domain.ErrNoCandidates.Error(), Code: errCodeNoCandidates, Details: details,
		})
	case errors.Is(err, domain.ErrNoQualifyingTracks):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: domain.ErrNoQualifyingTracks.Error(), Code: errCodeNoQualifyingTracks, Details: details,
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorWithCode(w, http.StatusGatewayTimeout, "playlist generation timed out", errCodeInternal)
	case errors.Is(err, context.Canceled):
		logging.Component(r.Context(), "rest").Debug().Err(err).Msg("client abandoned playlist generation")
		writeErrorWithCode(w, statusClientClosedRequest, "request canceled", errCodeCanceled)
	default:
		logging.Component(r.Context(), "rest").Error().Err(err).Msg("playlist generation failed")
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}

// GetPlaylist handles GET /playlists/{id}
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := r.PathValue("id")
	if playlistID == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "playlist id is required", errCodeInvalidRequest)
		return
	}

	playlist, err := h.svc.GetPlaylist(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
			return
		}
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
		return
	}

	writeJSON(w, http.StatusOK, playlist)
}
