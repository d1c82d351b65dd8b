package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"examradar/internal/config"
	"examradar/internal/logging"
	"examradar/internal/server"
	"examradar/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/examradar/config.yaml if not provided)")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	flag.Parse()

	var (
		cfg *config.AppConfig
		err error
	)
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if port := os.Getenv("PORT"); port != "" && *addr == "" {
		cfg.Server.Addr = ":" + port
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise capabilities")
	}
	analyzer := service.NewAnalyzer(opts)
	log.Info().
		Str("embedder", analyzer.EmbedderName()).
		Str("summarizer", analyzer.SummarizerName()).
		Msg("Analyzer ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, analyzer)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
