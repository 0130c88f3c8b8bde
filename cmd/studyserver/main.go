package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/config"
	"github.com/prepwise/study_server/internal/cardvault"
	"github.com/prepwise/study_server/internal/flashcards"
	"github.com/prepwise/study_server/internal/httpd"
	"github.com/prepwise/study_server/internal/stores/models"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	// A .env file is optional; config also reads plain env vars and flags.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if strings.ToLower(cfg.LogLevel) == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Info().Interface("config", cfg).Msg("loaded-config")

	if cfg.DBConnUri == "" {
		log.Fatal().Msg("db-conn-uri is required")
	}

	m, err := migrate.New(cfg.DBMigrationsPath, cfg.DBConnUri)
	if err != nil {
		log.Fatal().Err(err).Msg("could not init migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("could not run migrations")
	}
	m.Close()

	dbPool, err := pgxpool.New(context.Background(), cfg.DBConnUri)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to db")
	}
	defer dbPool.Close()

	queries := models.New(dbPool)
	vault := cardvault.NewServer(cfg, dbPool, queries)
	sets := flashcards.NewService(cfg, dbPool, queries)

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: httpd.NewServer(cfg, vault, sets).Handler(),
	}
	idleConnsClosed := make(chan struct{})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)

		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Error().Msgf("HTTP server Shutdown: %v", err)
		}
		cancel()
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.BindAddr).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
