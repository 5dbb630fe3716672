package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/arcas-io/load-server/internal/adapters/http"
	"github.com/arcas-io/load-server/internal/adapters/media"
	"github.com/arcas-io/load-server/internal/adapters/rtc"
	"github.com/arcas-io/load-server/internal/app"
	"github.com/arcas-io/load-server/internal/config"
	"github.com/arcas-io/load-server/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	registry := core.NewRegistry()
	engine := rtc.NewEngine(cfg.ICEServers)
	provider := media.NewProvider(ctx, media.Config{
		FPS:         cfg.Video.FPS,
		FrameBytes:  cfg.Video.FrameBytes,
		PacketBytes: cfg.Video.PacketBytes,
	})
	collector := rtc.NewCollector()

	server := app.New(registry, engine, provider, collector, core.SessionConfig{
		StatsWorkers: cfg.Stats.Workers,
	})
	exporter := app.NewExporter(registry, collector, cfg.Stats.ExportInterval)
	go exporter.Run(ctx)

	r := router.SetupRouter(cfg, server)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("load server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	server.Close()
	log.Info().Msg("Server exited gracefully")
}
