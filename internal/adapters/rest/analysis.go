package rest

import (
	"net/http"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

type analyzeBookRequest struct {
	Title string `json:"title" validate:"required,max=300"`
}

type analyzeBookResponse struct {
	Book     domain.Book         `json:"book"`
	Analysis domain.BookAnalysis `json:"analysis"`
}

// AnalyzeBook handles POST /analysis. The analyzer falls back to defaults, so
// this endpoint only fails on bad input.
func (h *Handler) AnalyzeBook(w http.ResponseWriter, r *http.Request) {
	var req analyzeBookRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	book, analysis := h.svc.AnalyzeTitle(r.Context(), req.Title)
	writeJSON(w, http.StatusOK, analyzeBookResponse{Book: book, Analysis: analysis})
}
