package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"tally/internal/backend"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/config"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelStart()

	res, err := backend.NewFactory(logger).Open(startCtx, bcfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	defer res.Close()

	dash := services.NewDashboard(services.NewRecordService(res.Store, res.Publisher), services.DashboardConfig{
		Location: loc,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})
	if err := dash.Reload(startCtx); err != nil {
		logger.Warn("Initial load failed, retrying on first request", log.FieldError, err)
	}

	sessions, closeSessions := openSessions(startCtx, cfg, logger)
	defer closeSessions()

	caches := cache.NewManager()
	caches.Register(dash.Reports())
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	srv, err := apphttp.NewServer(apphttp.ServerConfig{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		DevMode:        !cfg.CookieSecure,
		Ping:           res.Ping,
	}, dash, sessions, logger)
	if err != nil {
		return err
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tally server", "port", cfg.Port, "backend", bcfg.Type.String(), "tz", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		refreshLoop(gctx, dash, cfg.RefreshInterval, logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	<-done
	return nil
}

// openSessions uses Redis when REDIS_ADDR is set and reachable, and the
// in-process store otherwise.
func openSessions(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session.Manager, func()) {
	mcfg := session.ManagerConfig{
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
		Credentials: session.Credentials{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		},
	}
	if cfg.RedisAddr != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisAddr)
		if err == nil {
			logger.Info("Sessions stored in Redis", "addr", cfg.RedisAddr)
			return session.NewManager(session.NewRedisStore(client, cfg.SessionTTL), mcfg), func() { _ = client.Close() }
		}
		logger.Warn("Redis unavailable, keeping sessions in memory",
			log.FieldComponent, log.ComponentSession, log.FieldError, err)
	}
	return session.NewManager(session.NewMemoryStore(cfg.SessionTTL), mcfg), func() {}
}

func refreshLoop(ctx context.Context, dash *services.Dashboard, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, interval)
			if err := dash.Reload(rctx); err != nil {
				logger.Warn("Periodic reload failed", log.FieldOperation, log.OpReload, log.FieldError, err)
			}
			cancel()
		}
	}
}
