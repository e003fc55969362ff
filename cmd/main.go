package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/weekboard/internal/adapters/cache"
	"github.com/okian/weekboard/internal/adapters/http/api"
	"github.com/okian/weekboard/internal/adapters/imagestore"
	"github.com/okian/weekboard/internal/adapters/render"
	"github.com/okian/weekboard/internal/adapters/repository"
	app "github.com/okian/weekboard/internal/app"
	"github.com/okian/weekboard/internal/config"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	connectTimeout        = 15 * time.Second
	systemMetricsInterval = 10 * time.Second
	cacheKeyPrefix        = "weekboard:"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("invalid log_format, keeping text: " + err.Error() + "\n")
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "weekboard stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run connects every backend, serves HTTP until ctx is cancelled and then
// shuts everything down in reverse order.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	store, err := repository.New(connectCtx, cfg.MongoURI,
		repository.WithDatabase(cfg.MongoDatabase),
		repository.WithLogger(log.Named("mongo")))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	responseCache, closeCache, err := buildCache(connectCtx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithCollections(store),
		app.WithSnapshots(store),
		app.WithCatalog(store.Catalog()),
		app.WithPrices(store.Prices()),
		app.WithCache(responseCache),
		app.WithSchemaVersion(cfg.CacheSchemaVersion),
		app.WithTTLs(cfg.PageTTL(), cfg.AggregateTTL()),
		app.WithPageLimits(cfg.DefaultPageLimit, cfg.MaxPageLimit),
		app.WithArtifactTopN(cfg.ArtifactTopN),
		app.WithUpstreamTimeout(cfg.UpstreamTimeout()),
		app.WithWriteQueue(cfg.CacheWriteQueueSize, cfg.CacheWriteWorkers),
	}
	artifactOpt, err := buildArtifacts(connectCtx, cfg, store, log)
	if err != nil {
		return err
	}
	if artifactOpt != nil {
		opts = append(opts, artifactOpt)
	}

	svc, err := app.New(opts...)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	// cache writers outlive the signal so requests finishing in srv.Shutdown still persist
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)

	apiServer := api.NewServer(svc, svc,
		api.WithRenderRate(cfg.RenderRatePerSecond, cfg.RenderBurst),
		api.WithLogger(log.Named("http")))
	srv := newHTTPServer(cfg.Addr, apiServer.Routes(ctx))

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// buildCache returns the breaker-wrapped response cache: Redis when
// configured, otherwise an in-process cache.
func buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		log.Info(ctx, "no redis_url configured, using in-memory cache")
		return cache.NewBreaker(cache.NewMemory(), "memory", cache.BreakerSettings{}, log.Named("cache")), func() {}, nil
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL, cacheKeyPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return cache.NewBreaker(rc, "redis", cache.BreakerSettings{}, log.Named("cache")), func() { _ = rc.Close() }, nil
}

// buildArtifacts wires image rendering when object storage is configured.
// A nil option leaves the image endpoint reporting upstream_unavailable.
func buildArtifacts(ctx context.Context, cfg *config.Config, store *repository.Mongo, log logger.Logger) (app.Option, error) {
	if cfg.S3Endpoint == "" {
		log.Warn(ctx, "no s3_endpoint configured, leaderboard images disabled")
		return nil, nil
	}
	images, err := imagestore.New(ctx, imagestore.Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}
	renderer, err := render.New(
		render.WithWidth(cfg.RenderWidth),
		render.WithRowHeight(cfg.RenderRowHeight),
		render.WithFontPath(cfg.RenderFontPath))
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}
	return app.WithArtifacts(store.Artifacts(), renderer, images), nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater refreshes system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
