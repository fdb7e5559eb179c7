package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Buu205/vnsignal/internal/app"
	vnhttp "github.com/Buu205/vnsignal/internal/interfaces/http"
	"github.com/Buu205/vnsignal/internal/store"
	"github.com/Buu205/vnsignal/internal/store/cache"
	"github.com/Buu205/vnsignal/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Serves the market snapshot, rotation, and signal endpoints, refreshing snapshots on a timer and pushing updates over websocket.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(cfg.Store)
	if err != nil {
		return err
	}
	defer closeSource()

	var snapshotCache *cache.Cache
	if cfg.Store.CacheAddr != "" {
		snapshotCache = cache.New(cfg.Store.CacheConfig())
		defer snapshotCache.Close()
	}

	metrics := telemetry.New()
	marketSvc := app.NewMarketService(source, cfg.Market, metrics)
	rotationSvc := app.NewRotationService(source, cfg.Rotation, metrics)
	signalSvc := app.NewSignalService(source, cfg.Signals, metrics)

	handlers := vnhttp.NewHandlers(marketSvc, rotationSvc, signalSvc, source, snapshotCache, metrics)
	server := vnhttp.NewServer(vnhttp.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}, handlers, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go refreshLoop(ctx, marketSvc, handlers, snapshotCache, cfg.Server.RefreshInterval())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// refreshLoop recomputes the market snapshot on a timer and pushes it to
// websocket subscribers. A refresh failure is logged and retried on the next
// tick.
func refreshLoop(ctx context.Context, market *app.MarketService, handlers *vnhttp.Handlers,
	snapshotCache *cache.Cache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		refreshCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		state, err := market.Snapshot(refreshCtx)
		if err != nil {
			if !errors.Is(err, store.ErrNoData) {
				log.Error().Err(err).Msg("snapshot refresh failed")
			}
			return
		}
		if snapshotCache != nil {
			if err := snapshotCache.Set(refreshCtx, "market", state); err != nil {
				log.Warn().Err(err).Msg("snapshot cache write failed")
			}
		}
		handlers.Broadcast(state)
		log.Info().
			Str("regime", string(state.Regime)).
			Int("exposure", state.Exposure).
			Msg("snapshot refreshed")
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
