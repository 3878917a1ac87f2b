package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ch1tg/GameTrackr-api/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer creates and validates signed session tokens. The token subject
// carries the user id as a string-encoded integer.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenIssuer creates a TokenIssuer. Lifetime defaults to 24h when zero.
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), lifetime: lifetime}
}

// GenerateToken issues a signed, time-limited token for the user.
func (t *TokenIssuer) GenerateToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns the user id it was issued for.
// A subject that does not parse as an integer is rejected the same way a
// forged token is.
func (t *TokenIssuer) ParseToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, apperror.NewAuth("invalid or expired token", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, apperror.NewAuth("invalid token claims", err)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperror.NewAuth("invalid identity in token", err)
	}

	return userID, nil
}

// NewCSRFToken returns a fresh anti-forgery token for the double-submit
// cookie.
func NewCSRFToken() string {
	return uuid.NewString()
}
