package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/config"
	"github.com/ch1tg/GameTrackr-api/core/account"
	"github.com/ch1tg/GameTrackr-api/core/search"
	"github.com/ch1tg/GameTrackr-api/core/wishlist"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
)

// AccountService is the account surface the handlers depend on.
type AccountService interface {
	Register(ctx context.Context, input account.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, input account.UpdateProfileInput) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) (*model.User, error)
	DeleteAccount(ctx context.Context, userID int64, password string) error
}

// WishlistService is the wishlist surface the handlers depend on.
type WishlistService interface {
	Add(ctx context.Context, userID, rawgGameID int64) (*model.WishlistItem, error)
	Remove(ctx context.Context, userID, rawgGameID int64) error
	ListAll(ctx context.Context, userID int64) ([]*model.WishlistItem, error)
	ListPage(ctx context.Context, userID int64, page, perPage int) (*wishlist.Page, error)
	Clear(ctx context.Context, userID int64) error
}

// CatalogClient is the catalog surface the handlers depend on.
type CatalogClient interface {
	Trending(ctx context.Context, page int, ordering, platforms string) (*model.GamePage, error)
	Search(ctx context.Context, query string, page, limit int) (*model.GamePage, error)
	Detail(ctx context.Context, gameID int64) (*model.GameDetail, error)
	Preview(ctx context.Context, gameID int64) (*model.GamePreview, error)
}

// SearchService is the search surface the handlers depend on.
type SearchService interface {
	Users(ctx context.Context, query string, page, limit int) *search.UserResults
	All(ctx context.Context, query string, userLimit, gameLimit int) *search.AggregateResults
}

// TokenIssuer issues and validates session tokens.
type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

// APIHandler holds dependencies for all HTTP handlers.
type APIHandler struct {
	accounts AccountService
	wishlist WishlistService
	catalog  CatalogClient
	search   SearchService
	tokens   TokenIssuer
	cfg      *config.Config
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(
	accounts AccountService,
	wishlistSvc WishlistService,
	catalog CatalogClient,
	searchSvc SearchService,
	tokens TokenIssuer,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		accounts: accounts,
		wishlist: wishlistSvc,
		catalog:  catalog,
		search:   searchSvc,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError is the single boundary adapter from error to HTTP response.
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.Error("unexpected error", logger.ErrorField(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logger.Int("status", status), logger.ErrorField(err))
	}

	if len(appErr.Fields) > 0 {
		respondJSON(w, status, map[string]interface{}{"error": appErr.Fields})
		return
	}
	respondJSON(w, status, map[string]string{"error": appErr.Message})
}

// decodeJSON parses a request body, mapping malformed JSON to a validation
// error.
func decodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperror.NewValidation("Invalid request body", err)
	}
	return nil
}
