// Package search fans a query out to the local user store and the game
// catalog and merges the results.
package search

import (
	"context"

	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
	"github.com/ch1tg/GameTrackr-api/repository"
)

// DefaultAggregateLimit caps each source in the aggregate search.
const DefaultAggregateLimit = 5

// DefaultPageLimit is the page size for the standalone search endpoints.
const DefaultPageLimit = 20

// GameSearcher is the catalog side of the aggregator.
type GameSearcher interface {
	Search(ctx context.Context, query string, page, limit int) (*model.GamePage, error)
}

// UserResults is one page of local user matches.
type UserResults struct {
	Users       []model.PublicProfile `json:"users"`
	TotalCount  int64                 `json:"total_count"`
	CurrentPage int                   `json:"current_page"`
	TotalPages  int                   `json:"total_pages"`
}

// AggregateResults merges both sources for universal search.
type AggregateResults struct {
	Users []model.PublicProfile `json:"users"`
	Games []model.GamePreview   `json:"games"`
}

// Service implements user and aggregate search.
type Service struct {
	users repository.UserRepository
	games GameSearcher
}

// NewService creates a search service.
func NewService(users repository.UserRepository, games GameSearcher) *Service {
	return &Service{users: users, games: games}
}

// Users runs a case-insensitive substring match on usernames. A storage
// fault degrades to an empty result set instead of failing the request.
func (s *Service) Users(ctx context.Context, query string, page, limit int) *UserResults {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}

	empty := &UserResults{
		Users:       []model.PublicProfile{},
		CurrentPage: 1,
		TotalPages:  1,
	}

	users, total, err := s.users.SearchByUsername(ctx, query, page, limit)
	if err != nil {
		logger.Error("user search degraded to empty result",
			logger.String("query", query),
			logger.ErrorField(err))
		return empty
	}

	profiles := make([]model.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public())
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &UserResults{
		Users:       profiles,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
}

// All merges a local user search with a catalog search. Either source
// failing degrades to its empty list; the aggregate never fails outright.
func (s *Service) All(ctx context.Context, query string, userLimit, gameLimit int) *AggregateResults {
	if userLimit < 1 {
		userLimit = DefaultAggregateLimit
	}
	if gameLimit < 1 {
		gameLimit = DefaultAggregateLimit
	}

	games := []model.GamePreview{}
	page, err := s.games.Search(ctx, query, 1, gameLimit)
	if err != nil {
		logger.Error("aggregate game search failed",
			logger.String("query", query),
			logger.ErrorField(err))
	} else if page != nil {
		games = page.Games
	}

	userResults := s.Users(ctx, query, 1, userLimit)

	return &AggregateResults{
		Users: userResults.Users,
		Games: games,
	}
}
