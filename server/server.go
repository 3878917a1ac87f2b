package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ch1tg/GameTrackr-api/cache"
	"github.com/ch1tg/GameTrackr-api/config"
	"github.com/ch1tg/GameTrackr-api/core/account"
	"github.com/ch1tg/GameTrackr-api/core/auth"
	"github.com/ch1tg/GameTrackr-api/core/catalog"
	"github.com/ch1tg/GameTrackr-api/core/search"
	"github.com/ch1tg/GameTrackr-api/core/wishlist"
	"github.com/ch1tg/GameTrackr-api/db"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/repository"

	"github.com/gorilla/mux"
)

// Router builds the full route table for the given handler.
func Router(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(CORSMiddleware)

	// Authentication and own profile
	router.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/auth/logout", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet, http.MethodPatch, http.MethodDelete, http.MethodOptions)
	router.HandleFunc("/auth/me/password", h.AuthMiddleware(h.ChangePasswordHandler)).Methods(http.MethodPut, http.MethodOptions)

	// Public profiles
	router.HandleFunc("/users/{username}", h.GetUserHandler).Methods(http.MethodGet)
	router.HandleFunc("/users/{username}/wishlist", h.UserWishlistHandler).Methods(http.MethodGet)

	// Own wishlist
	router.HandleFunc("/wishlist", h.AuthMiddleware(h.WishlistHandler)).Methods(http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions)
	router.HandleFunc("/wishlist/{game_id:[0-9]+}", h.AuthMiddleware(h.RemoveWishlistItemHandler)).Methods(http.MethodDelete, http.MethodOptions)

	// Catalog
	router.HandleFunc("/games/trending", h.TrendingGamesHandler).Methods(http.MethodGet)
	router.HandleFunc("/games/{id:[0-9]+}", h.GameDetailHandler).Methods(http.MethodGet)

	// Search
	router.HandleFunc("/search", h.SearchAllHandler).Methods(http.MethodGet)
	router.HandleFunc("/search/users", h.SearchUsersHandler).Methods(http.MethodGet)
	router.HandleFunc("/search/games", h.SearchGamesHandler).Methods(http.MethodGet)

	return router
}

// Start initializes dependencies and runs the HTTP server until a shutdown
// signal arrives.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate database", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	logger.Info("connected to Redis")

	userRepo := repository.NewGormUserRepository(db.GormDB)
	wishlistRepo := repository.NewGormWishlistRepository(db.GormDB)

	store := cache.NewRedisStore(db.RedisClient)
	catalogClient := catalog.NewClient(cfg.RawgAPIURL, cfg.RawgAPIKey, store)

	accountSvc := account.NewService(userRepo)
	wishlistSvc := wishlist.NewService(wishlistRepo)
	searchSvc := search.NewService(userRepo, catalogClient)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)

	handler := NewAPIHandler(accountSvc, wishlistSvc, catalogClient, searchSvc, tokens, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      Router(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}
