package server

import (
	"net/http"
	"strconv"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/core/catalog"

	"github.com/gorilla/mux"
)

// TrendingGamesHandler serves a paginated trending listing from the catalog.
// Malformed paging input falls back to defaults instead of failing the
// request.
func (h *APIHandler) TrendingGamesHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	ordering := r.URL.Query().Get("ordering")
	if ordering == "" {
		ordering = catalog.DefaultOrdering
	}
	platforms := r.URL.Query().Get("platforms")

	result, err := h.catalog.Trending(r.Context(), page, ordering, platforms)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GameDetailHandler serves the full catalog projection for one game.
func (h *APIHandler) GameDetailHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, apperror.NewValidation("Invalid game id", err))
		return
	}

	detail, err := h.catalog.Detail(r.Context(), gameID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// queryInt reads an integer query parameter, falling back to a default on
// absent or malformed input.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
