package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/config"
	"github.com/thereayou/voxus/internal/telemetry"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	shutdownTracing, enabled, err := telemetry.Init(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	} else if enabled {
		log.Info().Msg("telemetry enabled")
	}

	srv := NewServer(cfg)
	srv.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownTracing(ctx)
}
