// Command server runs the SommLens backend: an HTTP API that turns wine
// label photos into structured wine data, synthesizes AI tasting profiles,
// and walks clients through guided tastings.
//
// Startup order: env → config → logging → database → tracing → router →
// HTTP server with graceful shutdown.
//
// @title        SommLens Backend API
// @version      1.0
// @description  Wine label scanning, AI tasting profiles, and guided tastings.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/vinobytes/somm-backend/internal/config"
	httpapi "github.com/vinobytes/somm-backend/internal/http"
	"github.com/vinobytes/somm-backend/internal/observability"
	"github.com/vinobytes/somm-backend/internal/repo"
	"github.com/vinobytes/somm-backend/internal/somm"
	"github.com/vinobytes/somm-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("attach gorm tracing plugin")
		}
	}

	client := somm.New(somm.Config{
		BaseURL:              cfg.Somm.BaseURL,
		ChatPath:             cfg.Somm.ChatPath,
		ImagePath:            cfg.Somm.ImagePath,
		APIKey:               cfg.Somm.APIKey,
		Model:                cfg.Somm.Model,
		ImageDetail:          cfg.Somm.ImageDetail,
		MaxTokens:            cfg.Somm.MaxTokens,
		SynthesisTemperature: cfg.Somm.SynthesisTemp,
		ExtractTimeout:       cfg.Somm.ExtractTimeout,
		SynthesisTimeout:     cfg.Somm.SynthesisTimeout,
	})

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, client, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
