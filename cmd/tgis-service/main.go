package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/mwort/grass/internal/api/http"
	"github.com/mwort/grass/internal/config"
	"github.com/mwort/grass/internal/health"
	"github.com/mwort/grass/internal/platform/factory"
	"github.com/mwort/grass/internal/platform/logger"
	"github.com/mwort/grass/internal/store"
)

func main() {
	log := logger.New("tgis-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Temporal service starting")

	// -------- Storage layer -----------------
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}

	// -------- Health monitor ---------------
	probeTimeout := time.Duration(cfg.HealthTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	serviceChecker := health.NewServiceHealthChecker(log, storeChecker)
	go storeChecker.Start(ctx, interval)
	go serviceChecker.Start(ctx, interval)

	// -------- Router & Server --------------
	router := httpapi.NewRouter(st, httpapi.NewHealthHandler(serviceChecker))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}
