package main

import (
	// standard library
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// third-party
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	// internal
	"github.com/rmitchellscott/ditherstudio/internal/config"
	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/fetch"
	"github.com/rmitchellscott/ditherstudio/internal/handlers"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
	"github.com/rmitchellscott/ditherstudio/internal/middleware"
	"github.com/rmitchellscott/ditherstudio/internal/pollers"
	"github.com/rmitchellscott/ditherstudio/internal/storage"
	"github.com/rmitchellscott/ditherstudio/internal/version"
)

func main() {
	_ = godotenv.Load()
	logging.SetLevel(logging.ParseLevel(config.Get("LOG_LEVEL", "info")))

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logging.InfoWithComponent(logging.ComponentStartup, "Starting Dither Studio", "version", version.String())

	cfg, err := config.Load()
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := database.Initialize(cfg.Database, cfg.GinMode); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	db := database.GetDB()

	if cfg.PresetsFile != "" {
		if _, _, err := database.NewPresetService(db).SyncPresetsFile(cfg.PresetsFile); err != nil {
			logging.ErrorWithComponent(logging.ComponentStartup, "Failed to load presets file", "path", cfg.PresetsFile, "error", err)
			os.Exit(1)
		}
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{
		"Content-Disposition",
		"X-Dither-Algorithm",
		"X-Dither-Duration-Ms",
		"X-Render-ID",
		"Retry-After",
	}
	router.Use(cors.New(corsConfig))

	policy := fetch.Policy{
		BlockPrivateIPs: cfg.BlockPrivateIPs,
		BlockedDomains:  cfg.BlockedDomains,
	}
	fetcher := fetch.New(policy, cfg.FetchTimeout, cfg.MaxUploadBytes, cfg.MaxPixels())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	defer limiter.Stop()

	var store *storage.RenderStorage
	if cfg.StoreRenders {
		store = storage.NewRenderStorage(cfg.RendersDir)
		logging.InfoWithComponent(logging.ComponentStartup, "Storing render outputs", "path", store.BasePath(), "retention", cfg.RenderRetention)
	}

	handlers.NewHandler(db, cfg, fetcher, limiter, store).Register(router)

	pollerManager := pollers.NewManager()
	pollerManager.Register(pollers.NewRetentionPoller(db, store, cfg.RenderRetention, cfg.RetentionInterval))
	pollerManager.Start(context.Background())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logging.InfoWithComponent(logging.ComponentStartup, "Listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithComponent(logging.ComponentStartup, "Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server", "timeout", cfg.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	pollerManager.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		return
	}

	logging.Info("Server stopped")
}
