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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "time/tzdata"

	emailPkg "sunrise/internal/adapters/email"
	"sunrise/internal/adapters/forumapi"
	web "sunrise/internal/adapters/http"
	"sunrise/internal/adapters/perf"
	"sunrise/internal/adapters/storage"
	admissionStore "sunrise/internal/adapters/storage/admission"
	preferenceStore "sunrise/internal/adapters/storage/preference"
	usageStore "sunrise/internal/adapters/storage/usage"
	"sunrise/internal/adapters/uistate"
	"sunrise/internal/config"
	"sunrise/internal/domain/forum"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	config.InitLogger(cfg.LogLevel)
	forum.BackendLocation = cfg.Location()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.InitDB(db); err != nil {
		return err
	}

	// Performance instrumentation: wrap DB with timing, share the collector with the backend client
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.Perf.SlowQuery)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := forumapi.NewMetrics(registry, collector)
	backend := forumapi.NewClient(cfg.Backend.URL,
		forumapi.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		forumapi.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := openUIState(ctx, cfg)
	if err != nil {
		return err
	}

	var mailer emailPkg.Sender
	if cfg.Email.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
		slog.Info("email_event", "event", "sender_configured", "sender", "resend")
	} else {
		mailer = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_event", "event", "sender_disabled", "hint", "set SUNRISE_RESEND_KEY for real delivery")
		}
	}

	handler, limiter, err := web.NewMux(&web.Deps{
		Config:      cfg,
		Backend:     backend,
		Metrics:     metrics,
		UIState:     state,
		Preferences: preferenceStore.NewSQLiteStore(timedDB),
		Admissions:  admissionStore.NewSQLiteStore(timedDB),
		Usage:       usageStore.NewSQLiteStore(timedDB),
		Mailer:      mailer,
		Collector:   collector,
		Registry:    registry,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server_event", "event", "started", "version", version, "addr", cfg.Addr,
			"env", cfg.Env, "backend", cfg.Backend.URL, "topics", len(cfg.Forum.Topics))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep(10 * time.Minute)
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("server_event", "event", "shutting_down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openUIState returns the Redis store when an address is configured, else the in-process one.
func openUIState(ctx context.Context, cfg config.Config) (uistate.Store, error) {
	if cfg.Redis.Addr == "" {
		return uistate.NewMemoryStore(), nil
	}
	rs, err := uistate.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Prefix, cfg.Redis.TTL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		rs.Close()
		return nil, err
	}
	slog.Info("server_event", "event", "ui_state", "store", "redis", "addr", cfg.Redis.Addr)
	return rs, nil
}
