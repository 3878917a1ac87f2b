package model

import "time"

// WishlistItem associates a user with a RAWG game. The (user, game) pair is
// unique so the same game cannot be wishlisted twice.
type WishlistItem struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex:uq_user_game" json:"userId"`
	RawgGameID int64     `gorm:"not null;uniqueIndex:uq_user_game" json:"rawgGameId"`
	AddedOn    time.Time `gorm:"autoCreateTime" json:"addedOn"`
}

// TableName sets the wishlist table name.
func (WishlistItem) TableName() string {
	return "wishlist_entries"
}
