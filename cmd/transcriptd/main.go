package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/visual-tutor/engine/engine"
	"github.com/visual-tutor/engine/observability"
	"github.com/visual-tutor/engine/server"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to engine config file (JSON or YAML; optional)")
		bindAddr   = flag.String("addr", "", "Listen address (overrides environment)")
		observer   = flag.String("observer", "slog", "Observer to emit engine events to (slog or noop)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		loaded, err := engine.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	srvCfg, err := server.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}
	if *bindAddr != "" {
		srvCfg.BindAddr = *bindAddr
	}

	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
	obs, err := observability.GetObserver(*observer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unknown observer %q\n", *observer)
		flag.PrintDefaults()
		os.Exit(1)
	}

	eng := engine.New(cfg,
		engine.WithLogger(logger),
		engine.WithObserver(obs),
	)
	srv := server.New(srvCfg, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("transcript engine listening", slog.String("addr", srvCfg.BindAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}
}
