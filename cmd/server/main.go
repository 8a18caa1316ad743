package main

import (
	"context"
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

	router "github.com/dkeye/Switchboard/internal/adapters/http"
	wssignal "github.com/dkeye/Switchboard/internal/adapters/signal"
	"github.com/dkeye/Switchboard/internal/app"
	"github.com/dkeye/Switchboard/internal/config"
	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/metrics"
	"github.com/dkeye/Switchboard/internal/tracing"
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

	dup, err := dispatch.ParseDuplicatePolicy(cfg.Dispatch.Duplicates)
	if err != nil {
		log.Fatal().Err(err).Msg("bad dispatch config")
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	tp, shutdownTracing := tracing.Setup(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: "switchboard",
	})
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	reg := app.NewRegistry()
	report := func(s core.Session, tag dispatch.Tag, err error) {
		app.SendError(s, string(tag), err)
	}
	d, err := app.NewDispatcher(reg, app.SimplePolicy{}, dup,
		dispatch.WithMetrics(m),
		dispatch.WithTracer(tp.Tracer(dispatch.TracerName)),
		dispatch.WithDropHook(report),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("handler registration failed")
	}

	limiter := wssignal.NewSessionRateLimiter(cfg.RateLimit.Messages, cfg.RateLimit.Interval)
	ctrl := wssignal.NewSignalWSController(d, limiter, m, report, wssignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	})

	r := router.SetupRouter(ctx, cfg, ctrl, promReg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Switchboard server started")
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
	log.Info().Msg("Server exited gracefully")
}
