package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jjoyayroo/alphathreads/internal/auth"
	"github.com/jjoyayroo/alphathreads/internal/config"
	"github.com/jjoyayroo/alphathreads/internal/infrastructure/blobstore"
	"github.com/jjoyayroo/alphathreads/internal/infrastructure/replicate"
	"github.com/jjoyayroo/alphathreads/internal/repository"
	"github.com/jjoyayroo/alphathreads/internal/server"
	"github.com/jjoyayroo/alphathreads/internal/service"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}
	log.Info().Msg("configuration loaded")

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	log.Info().Msg("database connection established")

	imgRepo := repository.NewPostgresImageRepository(db)
	blobs := blobstore.New(cfg.StoragePath, cfg.PublicBaseURL+"/files")
	provider := replicate.NewClient(cfg.ReplicateAPIToken, cfg.ProviderTimeout)

	gateway := service.NewGenerationService(provider, log)
	persister := service.NewPersistenceService(imgRepo, blobs, log)
	gallery := service.NewGalleryService(imgRepo)
	sweeper := service.NewSweeper(imgRepo, blobs, cfg.SweepGracePeriod, log)

	sessions := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	verifier := auth.NewTokenVerifier(cfg.IdentitySecret)
	events := auth.NewEvents()

	unsubscribe := events.Subscribe(func(ev auth.Event) {
		log.Info().
			Str("user_id", ev.UserID).
			Bool("signed_in", ev.SignedIn).
			Msg("session transition")
	})
	defer unsubscribe()

	srv := server.New(server.Options{
		Log:           log,
		Sessions:      sessions,
		Verifier:      verifier,
		Events:        events,
		Gateway:       gateway,
		Persister:     persister,
		Gallery:       gallery,
		Files:         blobs,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("initiating shutdown")
		cancel()
	}()

	// Schedule the orphan sweep
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		if err := sweeper.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("orphan sweep failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule orphan sweep")
	}
	c.Start()
	log.Info().Str("schedule", cfg.SweepSchedule).Msg("orphan sweeper scheduled")

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	<-c.Stop().Done()
	log.Info().Msg("shut down gracefully")
}
