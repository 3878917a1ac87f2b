package server

import (
	"net/http"

	"github.com/ch1tg/GameTrackr-api/core/wishlist"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"

	"github.com/gorilla/mux"
)

// wishlistPreviewResponse is a public wishlist page with catalog previews
// joined in.
type wishlistPreviewResponse struct {
	Games       []model.GamePreview `json:"games"`
	TotalCount  int64               `json:"total_count"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
	NextPage    *int                `json:"next_page"`
}

// GetUserHandler serves a public profile by username. The projection never
// carries the email or the password hash.
func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := h.accounts.GetByUsername(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user.Public())
}

// UserWishlistHandler serves a paginated public wishlist preview: the stored
// entries joined with the catalog's preview projection. Games the catalog
// cannot resolve are skipped individually rather than failing the page.
func (h *APIHandler) UserWishlistHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := h.accounts.GetByUsername(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", wishlist.DefaultPageSize)

	entries, err := h.wishlist.ListPage(r.Context(), user.ID, page, perPage)
	if err != nil {
		respondError(w, err)
		return
	}

	games := make([]model.GamePreview, 0, len(entries.Items))
	for _, item := range entries.Items {
		preview, err := h.catalog.Preview(r.Context(), item.RawgGameID)
		if err != nil {
			logger.Warn("skipping unresolvable wishlist game",
				logger.Int64("gameId", item.RawgGameID),
				logger.ErrorField(err))
			continue
		}
		games = append(games, *preview)
	}

	respondJSON(w, http.StatusOK, wishlistPreviewResponse{
		Games:       games,
		TotalCount:  entries.TotalCount,
		CurrentPage: entries.CurrentPage,
		TotalPages:  entries.TotalPages,
		NextPage:    entries.NextPage,
	})
}
