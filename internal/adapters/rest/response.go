package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const (
	errCodeInvalidRequest     = "INVALID_REQUEST"
	errCodeNoCandidates       = "NO_CANDIDATES"
	errCodeNoQualifyingTracks = "NO_QUALIFYING_TRACKS"
	errCodeNotFound           = "NOT_FOUND"
	errCodeInternal           = "INTERNAL"
	errCodeCanceled           = "CANCELED"
	errCodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := logging.WithComponent("rest")
		l.Error().Err(err).Msg("failed to encode response")
	}
}

func writeErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// decodeAndValidate reads a JSON body into dst and applies its validate tags.
// It writes the error response itself and reports whether the caller may continue.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupportedMedia)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeInvalidRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, validationMessage(err), errCodeInvalidRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), bound(fe.Tag()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
