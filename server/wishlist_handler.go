package server

import (
	"net/http"
	"strconv"

	"github.com/ch1tg/GameTrackr-api/apperror"

	"github.com/gorilla/mux"
)

type addWishlistRequest struct {
	RawgGameID int64 `json:"rawg_game_id"`
}

// WishlistHandler serves the authenticated user's own wishlist: GET lists
// all entries, POST adds one, DELETE clears it.
func (h *APIHandler) WishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := h.wishlist.ListAll(r.Context(), userID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req addWishlistRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		item, err := h.wishlist.Add(r.Context(), userID, req.RawgGameID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, item)

	case http.MethodDelete:
		if err := h.wishlist.Clear(r.Context(), userID); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// RemoveWishlistItemHandler removes a single game from the wishlist.
func (h *APIHandler) RemoveWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	gameID, err := strconv.ParseInt(mux.Vars(r)["game_id"], 10, 64)
	if err != nil {
		respondError(w, apperror.NewValidation("Invalid game id", err))
		return
	}

	if err := h.wishlist.Remove(r.Context(), userID, gameID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
