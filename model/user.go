package model

import "time"

// User represents a registered account.
type User struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"size:80;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"` // Never exposed in API responses
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Wishlist     []WishlistItem `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName sets the users table name.
func (User) TableName() string {
	return "users"
}

// PublicProfile is the user shape safe to show to anyone. It carries no
// email and no password hash.
type PublicProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
