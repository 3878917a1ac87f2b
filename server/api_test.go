package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ch1tg/GameTrackr-api/cache"
	"github.com/ch1tg/GameTrackr-api/config"
	"github.com/ch1tg/GameTrackr-api/core/account"
	"github.com/ch1tg/GameTrackr-api/core/auth"
	"github.com/ch1tg/GameTrackr-api/core/catalog"
	"github.com/ch1tg/GameTrackr-api/core/search"
	"github.com/ch1tg/GameTrackr-api/core/wishlist"
	"github.com/ch1tg/GameTrackr-api/model"
	"github.com/ch1tg/GameTrackr-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryWishlistRepo is an in-memory WishlistRepository for API tests.
type memoryWishlistRepo struct {
	items  []*model.WishlistItem
	nextID int64
	now    time.Time
}

func newMemoryWishlistRepo() *memoryWishlistRepo {
	return &memoryWishlistRepo{nextID: 1, now: time.Now()}
}

func (f *memoryWishlistRepo) Add(ctx context.Context, item *model.WishlistItem) error {
	for _, existing := range f.items {
		if existing.UserID == item.UserID && existing.RawgGameID == item.RawgGameID {
			return repository.ErrDuplicateEntry
		}
	}
	item.ID = f.nextID
	f.nextID++
	item.AddedOn = f.now
	f.now = f.now.Add(time.Second)
	clone := *item
	f.items = append(f.items, &clone)
	return nil
}

func (f *memoryWishlistRepo) Remove(ctx context.Context, userID, rawgGameID int64) (bool, error) {
	for i, item := range f.items {
		if item.UserID == userID && item.RawgGameID == rawgGameID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *memoryWishlistRepo) ListAll(ctx context.Context, userID int64) ([]*model.WishlistItem, error) {
	items, _, err := f.ListPage(ctx, userID, 1, len(f.items)+1)
	return items, err
}

func (f *memoryWishlistRepo) ListPage(ctx context.Context, userID int64, page, perPage int) ([]*model.WishlistItem, int64, error) {
	var owned []*model.WishlistItem
	for _, item := range f.items {
		if item.UserID == userID {
			clone := *item
			owned = append(owned, &clone)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].AddedOn.After(owned[j].AddedOn) })

	total := int64(len(owned))
	start := (page - 1) * perPage
	if start >= len(owned) {
		return []*model.WishlistItem{}, total, nil
	}
	end := start + perPage
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func (f *memoryWishlistRepo) Clear(ctx context.Context, userID int64) error {
	var kept []*model.WishlistItem
	for _, item := range f.items {
		if item.UserID != userID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

// memoryUserRepo is an in-memory UserRepository; Delete cascades to the
// wishlist repo the way the real transaction does.
type memoryUserRepo struct {
	users    map[int64]*model.User
	nextID   int64
	wishlist *memoryWishlistRepo
}

func newMemoryUserRepo(wishlist *memoryWishlistRepo) *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*model.User), nextID: 1, wishlist: wishlist}
}

func (f *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *memoryUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (f *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *memoryUserRepo) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	for _, u := range f.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *memoryUserRepo) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *memoryUserRepo) Update(ctx context.Context, user *model.User) error {
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *memoryUserRepo) Delete(ctx context.Context, id int64) error {
	delete(f.users, id)
	return f.wishlist.Clear(ctx, id)
}

func (f *memoryUserRepo) SearchByUsername(ctx context.Context, query string, page, limit int) ([]*model.User, int64, error) {
	var matches []*model.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			clone := *u
			matches = append(matches, &clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Username < matches[j].Username })

	total := int64(len(matches))
	start := (page - 1) * limit
	if start >= len(matches) {
		return []*model.User{}, total, nil
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

// testEnv wires the full API against in-memory storage and a fake catalog
// upstream.
type testEnv struct {
	router   http.Handler
	upstream *httptest.Server
}

func newTestEnv(t *testing.T, upstreamHandler http.HandlerFunc) *testEnv {
	t.Helper()

	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)

	wishlistRepo := newMemoryWishlistRepo()
	userRepo := newMemoryUserRepo(wishlistRepo)

	store := cache.NewMemoryStore()
	catalogClient := catalog.NewClient(upstream.URL, "test-key", store)

	cfg := &config.Config{TokenLifetime: 24 * time.Hour}
	tokens := auth.NewTokenIssuer("test-secret", cfg.TokenLifetime)

	handler := NewAPIHandler(
		account.NewService(userRepo),
		wishlist.NewService(wishlistRepo),
		catalogClient,
		search.NewService(userRepo, catalogClient),
		tokens,
		cfg,
	)

	return &testEnv{router: Router(handler), upstream: upstream}
}

func upstreamOK(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/games/") {
		fmt.Fprintf(w, `{"id": 3498, "name": "Grand Theft Auto V", "description": "Open world.",
			"background_image": "https://example.com/gta.jpg", "metacritic": 92,
			"parent_platforms": [{"platform": {"slug": "pc"}}]}`)
		return
	}
	fmt.Fprint(w, `{"results": [{"id": 3498, "name": "Grand Theft Auto V",
		"background_image": "https://example.com/gta.jpg", "metacritic": 92,
		"parent_platforms": [{"platform": {"slug": "pc"}}]}], "next": null}`)
}

func upstreamDown(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusBadGateway)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns the session cookies and token.
func (e *testEnv) register(t *testing.T, username, email string) (accessCookie, csrfCookie *http.Cookie, token string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "Pass_w0rd",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		switch c.Name {
		case AccessTokenCookie:
			accessCookie = c
		case CSRFTokenCookie:
			csrfCookie = c
		}
	}
	require.NotNil(t, accessCookie)
	require.NotNil(t, csrfCookie)
	assert.True(t, accessCookie.HttpOnly)
	assert.False(t, csrfCookie.HttpOnly)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	return accessCookie, csrfCookie, body.Token
}

func withSession(access, csrf *http.Cookie) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(access)
		r.AddCookie(csrf)
		r.Header.Set(CSRFHeader, csrf.Value)
	}
}

func TestRegisterLoginAndPublicProfile(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	env.register(t, "john_doe", "john@example.com")

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/register", map[string]string{
			"username": "john_doe",
			"email":    "different@example.com",
			"password": "Pass_w0rd",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "john_doe",
			"password": "wrong_pass",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login succeeds", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "john_doe",
			"password": "Pass_w0rd",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("public profile hides email and hash", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/john_doe", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "john_doe")
		assert.NotContains(t, body, "john@example.com")
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "$2a$") // bcrypt prefix
	})

	t.Run("unknown profile is 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/nobody", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCSRFProtection(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, token := env.register(t, "john_doe", "john@example.com")

	payload := map[string]int64{"rawg_game_id": 3498}

	t.Run("cookie mutation without CSRF header is forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/wishlist", payload, func(r *http.Request) {
			r.AddCookie(access)
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("cookie mutation with mismatched CSRF header is forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/wishlist", payload, func(r *http.Request) {
			r.AddCookie(access)
			r.AddCookie(csrf)
			r.Header.Set(CSRFHeader, "bogus")
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("cookie read needs no CSRF header", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
			r.AddCookie(access)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bearer mutation needs no CSRF header", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/wishlist", payload, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("no credentials at all is unauthenticated", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWishlistLifecycle(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")
	session := withSession(access, csrf)

	add := func(gameID int64) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/wishlist", map[string]int64{"rawg_game_id": gameID}, session)
	}

	require.Equal(t, http.StatusCreated, add(3498).Code)

	t.Run("duplicate add conflicts", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, add(3498).Code)

		w := env.do(t, http.MethodGet, "/wishlist", nil, session)
		require.Equal(t, http.StatusOK, w.Code)
		var items []model.WishlistItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Len(t, items, 1)
	})

	t.Run("remove then remove again", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/wishlist/3498", nil, session)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodDelete, "/wishlist/3498", nil, session)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("clear always succeeds", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/wishlist", nil, session)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestPublicWishlistPreview(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")
	session := withSession(access, csrf)

	t.Run("page 1 of empty wishlist is empty", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/john_doe/wishlist", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body wishlistPreviewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Empty(t, body.Games)
		assert.Equal(t, int64(0), body.TotalCount)
	})

	w := env.do(t, http.MethodPost, "/wishlist", map[string]int64{"rawg_game_id": 3498}, session)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("entries joined with catalog previews", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/john_doe/wishlist", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body wishlistPreviewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Games, 1)
		assert.Equal(t, "Grand Theft Auto V", body.Games[0].Name)
	})

	t.Run("page beyond range is 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/john_doe/wishlist?page=2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPublicWishlistSkipsUnresolvableGames(t *testing.T) {
	env := newTestEnv(t, upstreamDown)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")
	session := withSession(access, csrf)

	w := env.do(t, http.MethodPost, "/wishlist", map[string]int64{"rawg_game_id": 3498}, session)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/users/john_doe/wishlist", nil)
	require.Equal(t, http.StatusOK, w.Code, "unresolvable games are skipped, not fatal")

	var body wishlistPreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Games)
	assert.Equal(t, int64(1), body.TotalCount)
}

func TestProfileManagement(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")
	session := withSession(access, csrf)

	t.Run("patch own profile", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/auth/me", map[string]string{"username": "john_v2"}, session)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var user model.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "john_v2", user.Username)
		assert.Equal(t, "john@example.com", user.Email)
	})

	t.Run("change password to same value conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/auth/me/password", map[string]string{
			"old_password": "Pass_w0rd",
			"new_password": "Pass_w0rd",
		}, session)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("change password with wrong old password is forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/auth/me/password", map[string]string{
			"old_password": "wrong_pass",
			"new_password": "New_passw0rd",
		}, session)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete account with wrong password is forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/auth/me", map[string]string{"password": "wrong_pass"}, session)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAccountDeletionCascades(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")
	session := withSession(access, csrf)

	w := env.do(t, http.MethodPost, "/wishlist", map[string]int64{"rawg_game_id": 3498}, session)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodDelete, "/auth/me", map[string]string{"password": "Pass_w0rd"}, session)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/users/john_doe", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/users/john_doe/wishlist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrendingAndDetailEndpoints(t *testing.T) {
	t.Run("trending serves previews", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		w := env.do(t, http.MethodGet, "/games/trending", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page model.GamePage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Games, 1)
		assert.Equal(t, []string{"pc"}, page.Games[0].ParentPlatforms)
	})

	t.Run("malformed page falls back to defaults", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		w := env.do(t, http.MethodGet, "/games/trending?page=abc", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("trending propagates upstream failure as 503", func(t *testing.T) {
		env := newTestEnv(t, upstreamDown)
		w := env.do(t, http.MethodGet, "/games/trending", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("detail serves full projection", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		w := env.do(t, http.MethodGet, "/games/3498", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var detail model.GameDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
		assert.Equal(t, "Open world.", detail.Description)
	})
}

func TestSearchEndpoints(t *testing.T) {
	t.Run("aggregate search never fails", func(t *testing.T) {
		env := newTestEnv(t, upstreamDown)
		w := env.do(t, http.MethodGet, "/search?q=zzz-no-match&user_limit=5&game_limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code, "aggregate search must not surface upstream failures")

		var body search.AggregateResults
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Empty(t, body.Users)
		assert.Empty(t, body.Games)
	})

	t.Run("aggregate search merges sources", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		env.register(t, "gta_lover", "gta@example.com")

		w := env.do(t, http.MethodGet, "/search?q=gta", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body search.AggregateResults
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Users, 1)
		assert.Equal(t, "gta_lover", body.Users[0].Username)
		assert.Len(t, body.Games, 1)
	})

	t.Run("missing query is a validation error", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		for _, path := range []string{"/search", "/search/users", "/search/games"} {
			w := env.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
		}
	})

	t.Run("user search paginates", func(t *testing.T) {
		env := newTestEnv(t, upstreamOK)
		env.register(t, "anna", "anna@example.com")
		env.register(t, "annabel", "annabel@example.com")

		w := env.do(t, http.MethodGet, "/search/users?q=ann&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body search.UserResults
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Users, 1)
		assert.Equal(t, int64(2), body.TotalCount)
		assert.Equal(t, 2, body.TotalPages)
	})

	t.Run("game search degrades to empty page", func(t *testing.T) {
		env := newTestEnv(t, upstreamDown)
		w := env.do(t, http.MethodGet, "/search/games?q=zelda", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page model.GamePage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Empty(t, page.Games)
	})
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t, upstreamOK)
	access, csrf, _ := env.register(t, "john_doe", "john@example.com")

	w := env.do(t, http.MethodPost, "/auth/logout", nil, withSession(access, csrf))
	require.Equal(t, http.StatusNoContent, w.Code)

	cleared := 0
	for _, c := range w.Result().Cookies() {
		if c.Name == AccessTokenCookie || c.Name == CSRFTokenCookie {
			assert.Less(t, c.MaxAge, 0)
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)
}
