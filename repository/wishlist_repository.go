package repository

import (
	"context"
	"errors"

	"github.com/ch1tg/GameTrackr-api/model"

	"gorm.io/gorm"
)

// ErrDuplicateEntry is returned when the (user, game) pair already exists.
var ErrDuplicateEntry = errors.New("game already in wishlist")

// WishlistRepository defines the interface for wishlist data operations.
type WishlistRepository interface {
	Add(ctx context.Context, item *model.WishlistItem) error
	Remove(ctx context.Context, userID, rawgGameID int64) (bool, error)
	ListAll(ctx context.Context, userID int64) ([]*model.WishlistItem, error)
	ListPage(ctx context.Context, userID int64, page, perPage int) ([]*model.WishlistItem, int64, error)
	Clear(ctx context.Context, userID int64) error
}

// gormWishlistRepository implements WishlistRepository with GORM.
type gormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a GORM wishlist repository.
func NewGormWishlistRepository(db *gorm.DB) WishlistRepository {
	return &gormWishlistRepository{db: db}
}

// Add inserts a wishlist entry. The unique (user_id, rawg_game_id) index maps
// duplicates to ErrDuplicateEntry.
func (r *gormWishlistRepository) Add(ctx context.Context, item *model.WishlistItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEntry
	}
	return err
}

// Remove deletes one entry and reports whether a row was actually removed.
func (r *gormWishlistRepository) Remove(ctx context.Context, userID, rawgGameID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND rawg_game_id = ?", userID, rawgGameID).
		Delete(&model.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListAll returns every entry for the user, most recent first.
func (r *gormWishlistRepository) ListAll(ctx context.Context, userID int64) ([]*model.WishlistItem, error) {
	var items []*model.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_on DESC").
		Find(&items).Error
	return items, err
}

// ListPage returns one page of entries ordered by added_on descending, plus
// the total entry count for the user.
func (r *gormWishlistRepository) ListPage(ctx context.Context, userID int64, page, perPage int) ([]*model.WishlistItem, int64, error) {
	if page < 1 {
		page = 1
	}

	base := r.db.WithContext(ctx).Model(&model.WishlistItem{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*model.WishlistItem
	err := base.Order("added_on DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Clear deletes all entries for the user. Clearing an empty wishlist is a
// no-op, not an error.
func (r *gormWishlistRepository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.WishlistItem{}).Error
}
