// Package wishlist implements the per-user wishlist on top of its
// repository.
package wishlist

import (
	"context"
	"errors"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
	"github.com/ch1tg/GameTrackr-api/repository"
)

// DefaultPageSize is the wishlist page size when the caller supplies none.
const DefaultPageSize = 5

// Page is one page of wishlist entries with pagination metadata.
type Page struct {
	Items       []*model.WishlistItem `json:"items"`
	TotalCount  int64                 `json:"total_count"`
	CurrentPage int                   `json:"current_page"`
	TotalPages  int                   `json:"total_pages"`
	NextPage    *int                  `json:"next_page"`
}

// Service holds wishlist business logic.
type Service struct {
	items repository.WishlistRepository
}

// NewService creates a wishlist service.
func NewService(items repository.WishlistRepository) *Service {
	return &Service{items: items}
}

// Add inserts a (user, game) entry. Adding the same game twice is a
// conflict.
func (s *Service) Add(ctx context.Context, userID, rawgGameID int64) (*model.WishlistItem, error) {
	if rawgGameID <= 0 {
		return nil, apperror.NewValidation("rawg_game_id must be a positive integer", nil)
	}

	item := &model.WishlistItem{UserID: userID, RawgGameID: rawgGameID}
	if err := s.items.Add(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, apperror.NewConflict("Game is already in the wishlist", err)
		}
		return nil, apperror.NewDatabase("failed to add wishlist entry", err)
	}

	logger.Debug("wishlist entry added",
		logger.Int64("userId", userID),
		logger.Int64("gameId", rawgGameID))

	return item, nil
}

// Remove deletes one entry; removing an absent entry is NotFound.
func (s *Service) Remove(ctx context.Context, userID, rawgGameID int64) error {
	removed, err := s.items.Remove(ctx, userID, rawgGameID)
	if err != nil {
		return apperror.NewDatabase("failed to remove wishlist entry", err)
	}
	if !removed {
		return apperror.NewNotFound("Wishlist item not found", nil)
	}
	return nil
}

// ListAll returns every entry for the user, most recent first.
func (s *Service) ListAll(ctx context.Context, userID int64) ([]*model.WishlistItem, error) {
	items, err := s.items.ListAll(ctx, userID)
	if err != nil {
		return nil, apperror.NewDatabase("failed to list wishlist", err)
	}
	if items == nil {
		items = []*model.WishlistItem{}
	}
	return items, nil
}

// ListPage returns one page ordered by added time descending. Page 1 of an
// empty wishlist is an empty page; an empty page beyond 1 is NotFound.
func (s *Service) ListPage(ctx context.Context, userID int64, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}

	items, total, err := s.items.ListPage(ctx, userID, page, perPage)
	if err != nil {
		return nil, apperror.NewDatabase("failed to list wishlist page", err)
	}

	if len(items) == 0 && page > 1 {
		return nil, apperror.NewNotFound("Page not found", nil)
	}

	if items == nil {
		items = []*model.WishlistItem{}
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}

	result := &Page{
		Items:       items,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
	if page < totalPages {
		next := page + 1
		result.NextPage = &next
	}

	return result, nil
}

// Clear deletes all entries for the user.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.items.Clear(ctx, userID); err != nil {
		return apperror.NewDatabase("failed to clear wishlist", err)
	}
	logger.Debug("wishlist cleared", logger.Int64("userId", userID))
	return nil
}
