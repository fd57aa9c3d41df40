// Package main runs the match engine HTTP API: preferences, profiles,
// ranked matches, proposals, shortlists and CSV imports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"matrimony-match-engine/internal/api"
	"matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/handlers"
	"matrimony-match-engine/internal/services/cache"
	"matrimony-match-engine/internal/services/database"
	"matrimony-match-engine/internal/services/importer"
	"matrimony-match-engine/internal/services/matcher"
	"matrimony-match-engine/internal/services/proposal"
	s3service "matrimony-match-engine/internal/services/s3"
	"matrimony-match-engine/internal/services/ses"
	"matrimony-match-engine/internal/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	profileRepo := database.NewProfileRepository(db)
	prefRepo := database.NewPreferenceRepository(db)
	proposalRepo := database.NewProposalRepository(db)
	shortlistRepo := database.NewShortlistRepository(db)

	checks := map[string]handlers.HealthCheck{"database": db.HealthCheck}

	// Redis is optional; without it every browse request ranks from scratch
	var rankCache matcher.RankCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRankCache(cfg.RedisURL, cfg.RankCacheTTL)
		if err != nil {
			logger.Warn("Rank cache disabled", utils.Error(err))
			checks["redis"] = func(context.Context) error { return err }
		} else {
			defer rc.Close()
			rankCache = rc
			checks["redis"] = rc.Ping
		}
	}
	matchSvc := matcher.NewMatcherService(cfg, prefRepo, profileRepo, rankCache)

	var notifier proposal.Notifier
	if cfg.SESSenderEmail != "" {
		sesSvc, err := ses.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("Proposal emails disabled", utils.Error(err))
		} else {
			notifier = sesSvc
		}
	}
	proposalSvc := proposal.NewService(proposalRepo, profileRepo, notifier)

	deps := api.Dependencies{
		Preferences: prefRepo,
		Profiles:    profileRepo,
		Matcher:     matchSvc,
		Proposals:   proposalSvc,
		Shortlist:   shortlistRepo,
	}

	if cfg.S3Bucket != "" {
		s3Svc, err := s3service.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("S3 unavailable, uploads are stored nowhere", utils.Error(err))
			deps.Importer = importer.NewService(profileRepo, nil)
		} else {
			deps.Importer = importer.NewService(profileRepo, s3Svc)
			deps.Presigner = s3Svc
		}
	} else {
		deps.Importer = importer.NewService(profileRepo, nil)
	}

	deps.Health = handlers.NewHealthHandler(checks)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", api.UserIDHeader},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           c.Handler(api.NewRouter(deps)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			utils.String("addr", srv.Addr),
			utils.String("stage", cfg.Stage),
			utils.Bool("rankCache", rankCache != nil),
			utils.Bool("emails", notifier != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
