package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mind-engage/scorecheck/internal/config"
	"github.com/mind-engage/scorecheck/internal/db"
	"github.com/mind-engage/scorecheck/internal/grading"
	"github.com/mind-engage/scorecheck/internal/metrics"
	"github.com/mind-engage/scorecheck/internal/scores"
)

func main() {
	cfg := config.FromEnv()
	initLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fatal("config", err)
	}
	policy, err := cfg.GradingPolicy()
	if err != nil {
		fatal("grading policy", err)
	}

	// --- Store ---
	var store scores.Store
	if cfg.DBDriver == "memory" {
		store = scores.NewInMemoryStore()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			fatal("db open failed", err)
		}
		defer dbh.Close()
		store = scores.NewSQLStore(dbh, cfg.DBDriver)
	}

	var rec *metrics.Recorder
	if cfg.EnableMetrics {
		rec = metrics.NewRecorder(prometheus.DefaultRegisterer)
	}

	r := newRouter(cfg, deps{
		validator: grading.NewValidator(policy.Options()...),
		store:     store,
		metrics:   rec,
		gatherer:  prometheus.DefaultGatherer,
	})

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("listening",
		"addr", cfg.HTTPAddr,
		"mode", cfg.Mode,
		"db", cfg.DBDriver,
		"passing_score", policy.PassingScore,
		"strict_mode", policy.StrictMode)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server", err)
	}
}

func initLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
