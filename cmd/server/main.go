package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	router "github.com/dkeye/anonchat/internal/adapters/http"
	wsignal "github.com/dkeye/anonchat/internal/adapters/signal"
	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/app/orch"
	"github.com/dkeye/anonchat/internal/app/stats"
	"github.com/dkeye/anonchat/internal/assist"
	"github.com/dkeye/anonchat/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	started := time.Now()
	reg := app.NewRegistry()
	rooms := app.NewRoomManager(cfg.MaxLog)
	notifier := stats.NewNotifier()

	groq := assist.NewGroqClient(assist.GroqConfig{
		Endpoint:    cfg.AI.Endpoint,
		Model:       cfg.AI.Model,
		APIKey:      cfg.AI.APIKey,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, &http.Client{Timeout: cfg.AI.Timeout})
	bridge := assist.NewBridge(groq, cfg.AI.Timeout, cfg.AI.MaxConcurrent)

	o := orch.New(ctx, orch.Deps{
		Registry:     reg,
		Rooms:        rooms,
		Policy:       app.SimplePolicy{},
		Stats:        notifier,
		Assistant:    bridge,
		HistoryLimit: cfg.HistoryLimit,
	})

	ctl := wsignal.NewSignalWSController(o, wsignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
		SendRate:   rate.Limit(cfg.SendRate),
		SendBurst:  cfg.SendBurst,
	})

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		stats.NewCollector(rooms, reg.Len, notifier),
		ctl.Events(),
	)

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:    o,
		Signal:  ctl,
		Metrics: metrics,
		Started: started,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	changes, unsubscribe := notifier.Subscribe()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("anonchat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return ctl.RelayStats(gctx, changes, started)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		reg.CancelAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	o.Wait()
	log.Info().Msg("Server exited gracefully")
}
