// Package catalog is the cached pass-through layer over the RAWG game API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/cache"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
)

const (
	// TrendingPageSize is the fixed upstream page size for listings.
	TrendingPageSize = 24
	// DefaultOrdering is applied to listings when none is supplied.
	DefaultOrdering = "-relevance"
	// searchOrdering sorts search results by most recently added.
	searchOrdering = "-added"

	listingTTL = 20 * time.Minute
	detailTTL  = 24 * time.Hour

	requestTimeout = 10 * time.Second
	searchTimeout  = 5 * time.Second
)

// rawgGame is the upstream payload shape shared by listings and the detail
// endpoint.
type rawgGame struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	BackgroundImage string `json:"background_image"`
	Metacritic      *int   `json:"metacritic"`
	Released        string `json:"released"`
	Website         string `json:"website"`
	ParentPlatforms []struct {
		Platform *struct {
			Slug string `json:"slug"`
		} `json:"platform"`
	} `json:"parent_platforms"`
	Platforms []struct {
		Platform *struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type rawgList struct {
	Results []rawgGame `json:"results"`
	Next    *string    `json:"next"`
}

// Client calls the RAWG API and memoizes responses in the cache store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	store      cache.Store
}

// NewClient creates a catalog client.
func NewClient(baseURL, apiKey string, store cache.Store) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		store:      store,
	}
}

// Trending returns one page of trending games as previews. Upstream or
// network failures surface as UpstreamError; a missing API key is a
// ConfigError.
func (c *Client) Trending(ctx context.Context, page int, ordering, platforms string) (*model.GamePage, error) {
	if c.apiKey == "" {
		return nil, apperror.NewConfig("RAWG API key is not configured", nil)
	}
	if page < 1 {
		page = 1
	}
	if ordering == "" {
		ordering = DefaultOrdering
	}

	key := fmt.Sprintf("rawg:trending:page=%d:ordering=%s:platforms=%s", page, ordering, platforms)

	var result model.GamePage
	err := c.store.GetOrCompute(ctx, key, listingTTL, &result, func(ctx context.Context) (interface{}, error) {
		params := url.Values{}
		params.Set("key", c.apiKey)
		params.Set("page_size", strconv.Itoa(TrendingPageSize))
		params.Set("page", strconv.Itoa(page))
		params.Set("ordering", ordering)
		if platforms != "" {
			params.Set("platforms", platforms)
		}

		list, err := c.fetchList(ctx, params)
		if err != nil {
			return nil, err
		}
		return listToPage(list, page), nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.NewUpstream("Failed to fetch trending games", err)
	}

	return &result, nil
}

// Search returns one page of search results ordered by most recently added.
// Any upstream failure degrades to an empty page so search stays responsive
// while the catalog is down; only a missing API key is reported.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*model.GamePage, error) {
	if c.apiKey == "" {
		return nil, apperror.NewConfig("RAWG API key is not configured", nil)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	key := fmt.Sprintf("rawg:search:q=%s:page=%d:limit=%d", query, page, limit)

	var result model.GamePage
	err := c.store.GetOrCompute(ctx, key, listingTTL, &result, func(ctx context.Context) (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, searchTimeout)
		defer cancel()

		params := url.Values{}
		params.Set("key", c.apiKey)
		params.Set("search", query)
		params.Set("page", strconv.Itoa(page))
		params.Set("ordering", searchOrdering)
		params.Set("page_size", strconv.Itoa(limit))

		list, err := c.fetchList(ctx, params)
		if err != nil {
			logger.Error("game search degraded to empty result",
				logger.String("query", query),
				logger.ErrorField(err))
			return &model.GamePage{Games: []model.GamePreview{}}, nil
		}
		return listToPage(list, page), nil
	})
	if err != nil {
		return nil, apperror.NewUpstream("Failed to search games", err)
	}

	return &result, nil
}

// Detail returns the full projection for one game. Upstream 404 maps to
// NotFound, any other failure to UpstreamError.
func (c *Client) Detail(ctx context.Context, gameID int64) (*model.GameDetail, error) {
	game, err := c.fetchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	detail := transformDetail(game)
	return &detail, nil
}

// Preview returns the lightweight projection for one game. It shares the
// cached upstream payload with Detail.
func (c *Client) Preview(ctx context.Context, gameID int64) (*model.GamePreview, error) {
	game, err := c.fetchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	preview := transformPreview(game)
	return &preview, nil
}

// fetchGame returns the raw upstream payload for a game, cached for 24h.
func (c *Client) fetchGame(ctx context.Context, gameID int64) (*rawgGame, error) {
	if c.apiKey == "" {
		return nil, apperror.NewConfig("RAWG API key is not configured", nil)
	}

	key := fmt.Sprintf("rawg:game:%d", gameID)

	var game rawgGame
	err := c.store.GetOrCompute(ctx, key, detailTTL, &game, func(ctx context.Context) (interface{}, error) {
		endpoint := fmt.Sprintf("%s/games/%d?key=%s", c.baseURL, gameID, url.QueryEscape(c.apiKey))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperror.NewInternal("failed to build catalog request", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperror.NewUpstream("Catalog API is unreachable", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, apperror.NewNotFound("Game not found", nil)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apperror.NewUpstream(fmt.Sprintf("Catalog API returned status %d", resp.StatusCode), nil)
		}

		var fetched rawgGame
		if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
			return nil, apperror.NewUpstream("Failed to decode catalog response", err)
		}
		return &fetched, nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.NewUpstream("Failed to fetch game", err)
	}

	return &game, nil
}

// fetchList performs one GET against the upstream games listing endpoint.
func (c *Client) fetchList(ctx context.Context, params url.Values) (*rawgList, error) {
	endpoint := fmt.Sprintf("%s/games?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}

	var list rawgList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return &list, nil
}

func listToPage(list *rawgList, page int) *model.GamePage {
	games := make([]model.GamePreview, 0, len(list.Results))
	for _, g := range list.Results {
		games = append(games, transformPreview(&g))
	}

	result := &model.GamePage{Games: games}
	if list.Next != nil {
		next := page + 1
		result.NextPage = &next
	}
	return result
}

func transformPreview(g *rawgGame) model.GamePreview {
	platforms := make([]string, 0, len(g.ParentPlatforms))
	for _, p := range g.ParentPlatforms {
		if p.Platform != nil {
			platforms = append(platforms, p.Platform.Slug)
		}
	}

	return model.GamePreview{
		ID:              g.ID,
		Name:            g.Name,
		BackgroundImage: g.BackgroundImage,
		Metacritic:      g.Metacritic,
		ParentPlatforms: platforms,
	}
}

func transformDetail(g *rawgGame) model.GameDetail {
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		if genre.Name != "" {
			genres = append(genres, genre.Name)
		}
	}

	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		if p.Platform != nil {
			platforms = append(platforms, p.Platform.Name)
		}
	}

	return model.GameDetail{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		Metacritic:      g.Metacritic,
		Released:        g.Released,
		BackgroundImage: g.BackgroundImage,
		Website:         g.Website,
		Genres:          genres,
		Platforms:       platforms,
	}
}
