package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medialist/config"
	"medialist/handlers"
	"medialist/internal/auth"
	"medialist/internal/database"
	"medialist/internal/logging"
	"medialist/internal/mail"
	"medialist/models"
	"medialist/services/metadata"
	"medialist/services/reports"
	"medialist/services/users"
	"medialist/services/watchlist"
	"medialist/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server.fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg)

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	mailer := mail.NewLogMailer()
	usersSvc := users.NewService(db.Users, mailer)
	watchlistSvc := watchlist.NewService(db.Watchlists)
	reportsSvc := reports.NewService(db.Reports)

	ctx := context.Background()
	if password, created, err := usersSvc.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	} else if created {
		// Logged once; change it after first login.
		slog.Warn("users.admin_bootstrap.created",
			"email", users.BootstrapAdminEmail,
			"password", password)
	}

	var cache metadata.Cache = metadata.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisCache, err := metadata.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("metadata.cache.redis_unavailable", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}
	tmdb := metadata.NewClient(cfg.TMDBAPIKey, cache).WithBaseURL(cfg.TMDBBaseURL)
	hydrator := metadata.NewHydrator(tmdb, 4)

	authSvc := auth.New(cfg, usersSvc)
	m := authSvc.Middleware()

	router := utils.NewRouter(cfg.ClientOrigin)

	authRoutes, avatarRoutes := authSvc.Handlers()
	router.PathPrefix("/auth").Handler(authRoutes)
	router.PathPrefix("/avatar").Handler(avatarRoutes)

	// Public account routes must be registered before the guarded /api
	// subrouter so they match first.
	public := router.PathPrefix("/api/auth").Subrouter()
	handlers.NewUsersHandler(usersSvc).Register(public)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(m.Auth)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(m.RBAC(models.RoleAdmin))

	handlers.NewWatchlistHandler(watchlistSvc, hydrator).Register(api)
	handlers.NewMetadataHandler(tmdb).Register(api)
	handlers.NewReportsHandler(reportsSvc).Register(api, admin)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server.listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-stop.Done():
	}

	slog.Info("server.shutdown.start")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server.shutdown.done")
	return nil
}
