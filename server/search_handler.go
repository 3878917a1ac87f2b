package server

import (
	"net/http"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/core/search"
)

// SearchAllHandler serves universal search across local users and the game
// catalog. Neither source failing can fail the endpoint.
func (h *APIHandler) SearchAllHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, apperror.NewValidation("Missing query parameter 'q'", nil))
		return
	}

	userLimit := queryInt(r, "user_limit", search.DefaultAggregateLimit)
	gameLimit := queryInt(r, "game_limit", search.DefaultAggregateLimit)

	results := h.search.All(r.Context(), query, userLimit, gameLimit)
	respondJSON(w, http.StatusOK, results)
}

// SearchUsersHandler serves a paginated local user search.
func (h *APIHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, apperror.NewValidation("Missing query parameter 'q'", nil))
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", search.DefaultPageLimit)

	results := h.search.Users(r.Context(), query, page, limit)
	respondJSON(w, http.StatusOK, results)
}

// SearchGamesHandler serves a paginated catalog search. Upstream failures
// degrade to an empty page inside the catalog client; only a missing API
// key surfaces as an error here.
func (h *APIHandler) SearchGamesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, apperror.NewValidation("Missing query parameter 'q'", nil))
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", search.DefaultPageLimit)

	results, err := h.catalog.Search(r.Context(), query, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
