package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/handler"
	"github.com/Shivanand-hulikatti/event-admission/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, metrics.New(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Seed.DefaultUsers {
		if _, err := a.seedDefaults(ctx); err != nil {
			return err
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Events:         handler.NewEventHandler(a.events, a.log),
		Participants:   handler.NewParticipantHandler(a.participants, a.log),
		Tokens:         a.tokens,
		DB:             a.repo,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Limiter:        rate.NewLimiter(rate.Limit(a.cfg.RateLimitRPS), a.cfg.RateLimitBurst),
		AllowedOrigins: a.cfg.AllowedOrigins,
		Logger:         a.log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server listening", "addr", srv.Addr, "env", a.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		a.log.Info("server stopped")
		return nil
	})
	return g.Wait()
}
