package main

import (
	"context"
	"crypto/rand"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelfeed/api"
	"reelfeed/config"
	"reelfeed/handlers"
	"reelfeed/internal/database"
	"reelfeed/services/accounts"
	"reelfeed/services/kobis"
	"reelfeed/services/metadata"
	"reelfeed/services/sessions"
	"reelfeed/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	setupLogging(cfg.LogFile)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("[main] create data dir: %v", err)
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()
	trendRepo := database.NewTrendRepository(db.Connection())

	// KOBIS is optional: without a key the matcher and box-office cache stay
	// nil and the dependent endpoints degrade to TMDB-only behavior.
	var matcher *kobis.Matcher
	var boxoffice *kobis.BoxOfficeCache
	if cfg.KOBISAPIKey != "" {
		kobisClient, err := kobis.NewClient(cfg.KOBISAPIKey, nil)
		if err != nil {
			log.Fatalf("[main] kobis client: %v", err)
		}
		matcher = kobis.NewMatcher(kobisClient)
		boxoffice = kobis.NewBoxOfficeCache(kobisClient, time.Now)
	} else {
		log.Printf("[main] KOBIS_API_KEY not set, release-status matching disabled")
	}

	metadataSvc := metadata.NewService(metadata.Config{
		TMDBAPIKey:    cfg.TMDBAPIKey,
		Language:      cfg.Language,
		Region:        cfg.Region,
		CacheDir:      cfg.CacheDir,
		CacheTTLHours: cfg.CacheTTLHours,
	}, matcher, boxoffice)

	sessionsSvc, err := sessions.NewService(cfg.DataDir, sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("[main] sessions service: %v", err)
	}

	accountsSvc, err := accounts.NewService(cfg.DataDir, resetSecret(cfg.SessionSecret))
	if err != nil {
		log.Fatalf("[main] accounts service: %v", err)
	}

	utils.SetAllowedOrigins(cfg.AllowedOrigins)
	router := utils.NewRouter()
	// Attach the account context whenever a valid session token is present;
	// anonymous requests pass through untouched.
	router.Use(api.OptionalAuthMiddleware(sessionsSvc))

	handlers.NewMoviesHandler(metadataSvc).RegisterRoutes(router)
	handlers.NewTMDBHandler(metadataSvc).RegisterRoutes(router)
	handlers.NewRecommendHandler().RegisterRoutes(router)

	trendsHandler := handlers.NewTrendsHandler(trendRepo, nil)
	if boxoffice != nil {
		trendsHandler = handlers.NewTrendsHandler(trendRepo, boxoffice)
	}
	trendsHandler.Limiter = api.NewIPRateLimiter(rate.Every(time.Second), 20)
	trendsHandler.RegisterRoutes(router)

	handlers.NewAuthHandler(accountsSvc, sessionsSvc).RegisterRoutes(router)
	handlers.NewVersionHandler().RegisterRoutes(router)

	// Credential endpoints get a tighter per-IP limit than the rest of the
	// API to slow down brute forcing.
	authLimiter := api.NewIPRateLimiter(rate.Every(time.Second), 10)
	root := api.RateLimitPrefix(authLimiter, "/auth/", router)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}

// setupLogging sends logs to both stdout and a rotating file when LOG_FILE
// is configured.
func setupLogging(logFile string) {
	if logFile == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// resetSecret returns the configured session secret, generating an ephemeral
// one when unset. An ephemeral secret invalidates outstanding password reset
// tokens on restart, which is acceptable for development setups.
func resetSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("[main] generate session secret: %v", err)
	}
	log.Printf("[main] SESSION_SECRET not set, using an ephemeral secret")
	return secret
}
