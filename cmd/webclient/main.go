package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coverdesk/internal/audit"
	"coverdesk/internal/authstate"
	"coverdesk/internal/dedupe"
	"coverdesk/internal/platform/config"
	"coverdesk/internal/platform/httpserver"
	"coverdesk/internal/platform/logger"
	"coverdesk/internal/platform/metrics"
	platformredis "coverdesk/internal/platform/redis"
	"coverdesk/internal/session"
	"coverdesk/internal/token"
	"coverdesk/internal/upstream"
	"coverdesk/internal/web"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Behavior lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildTokenStore(cfg)
	if err != nil {
		log.Error("token store init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	api := upstream.New(cfg.UpstreamBaseURL, store,
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithLogger(log),
	)

	auditStore := audit.NewMemoryStore(256)
	recorder := audit.NewRecorder(128, log)
	go audit.NewWorker(auditStore, recorder.Inbox()).Run(rootCtx)

	container, err := authstate.New(rootCtx, store, session.NewDecoder(), upstream.NewExchangeAdapter(api),
		authstate.WithLogger(log),
		authstate.WithMetrics(metrics.New()),
		authstate.WithAuditSink(recorder),
	)
	if err != nil {
		log.Error("auth state init failed", "error", err)
		os.Exit(1)
	}

	deduper := dedupe.New(dedupe.WithWindow(cfg.FreshnessWindow))

	handler := web.NewHandler(container, api, deduper, auditStore, log)
	router := web.NewRouter(handler, container, log)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting coverdesk", "addr", cfg.Addr, "upstream", cfg.UpstreamBaseURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildTokenStore picks the credential store: redis when configured, the
// sealed file store when a path is set, in-memory otherwise.
func buildTokenStore(cfg config.Config) (token.Store, func(), error) {
	noop := func() {}

	if cfg.Redis.URL != "" {
		rc, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return token.NewRedisStore(rc.Client, cfg.ProfileID), func() { _ = rc.Close() }, nil
	}

	if cfg.TokenStorePath != "" {
		var opts []token.FileStoreOption
		if key := []byte(cfg.TokenSealKey); len(key) == 32 {
			opts = append(opts, token.WithSealKey(key))
		}
		return token.NewFileStore(cfg.TokenStorePath, opts...), noop, nil
	}

	return token.NewMemoryStore(), noop, nil
}
