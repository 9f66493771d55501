package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penportal-api/internal/api"
	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/database"
	"github.com/penportal-api/internal/repository"
	"github.com/penportal-api/internal/service"
	"github.com/penportal-api/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	migrateVersion := flag.Int("migrate-version", -1, "migrate to the given version and exit")
	issueToken := flag.String("issue-token", "", "print a bearer token for the given user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	// Bootstrap logger until the configured one is available
	log := logger.New("info", "json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Format)

	if *issueToken != "" {
		token, err := api.NewAuthenticator(cfg.Auth).IssueToken(*issueToken, *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	log.Info().Msg("Starting PenPortal API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch {
	case *migrateDown:
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		return
	case *migrateVersion >= 0:
		if err := db.MigrateToVersion(cfg.Database.MigrationsPath, uint(*migrateVersion)); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize the ranking engine and services
	engine, err := service.NewEngine(cfg.Ranking)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ranking engine")
	}
	services := service.NewServices(repos, engine, cfg, log)

	// Load published articles into the ledger before serving reads
	if _, err := services.Article.Hydrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to hydrate ranking engine")
	}

	// Start background write-behind flush and re-rank sweep
	go services.Maintenance.StartProcessor(context.Background())
	log.Info().Msg("Ranking maintenance started")

	// Initialize router
	router := api.NewRouter(services, cfg, log, api.WithReadinessCheck(db.HealthCheck))

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop taking engagement before the last flush
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	services.Maintenance.StopProcessor()

	flushed, err := services.Maintenance.Flush(ctx)
	if err != nil {
		log.Error().Err(err).Int("flushed", flushed).Msg("Final flush incomplete; unflushed counters are lost")
	} else {
		log.Info().Int("flushed", flushed).Msg("Final flush completed")
	}

	log.Info().Msg("Server exited gracefully")
}
