package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/thunder/internal/adapters/http/api"
	"github.com/okian/thunder/internal/adapters/http/swagger"
	"github.com/okian/thunder/internal/adapters/ingest"
	service "github.com/okian/thunder/internal/app"
	"github.com/okian/thunder/internal/config"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("thunder: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(cfg, svc)
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
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService maps configuration onto the rating service.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithEngine(cfg.Engine()),
		service.WithDefaultState(cfg.DefaultState()),
		service.WithCutoff(cutoff),
		service.WithQueueSize(cfg.RefreshQueueSize),
		service.WithRefreshInterval(cfg.RefreshEvery()),
	}
	if cfg.WorkbookPath != "" {
		opts = append(opts, service.WithSource(newSource(cfg, log)))
	}
	return service.New(opts...), nil
}

func newSource(cfg *config.Config, log logger.Logger) *ingest.WorkbookSource {
	opts := []ingest.SourceOption{
		ingest.WithParser(ingest.NewParser(
			ingest.WithDatesSheet(cfg.DatesSheet),
			ingest.WithDedupeMaxRows(cfg.DedupeMaxRows),
		)),
		ingest.WithSourceLogger(log.Named("ingest")),
	}
	if cfg.SeedsPath != "" {
		opts = append(opts, ingest.WithSeedsFile(cfg.SeedsPath))
	}
	return ingest.NewWorkbookSource(cfg.WorkbookPath, opts...)
}

func newHTTPServer(cfg *config.Config, svc *service.Service) *http.Server {
	router := api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithRefreshRate(cfg.RefreshRatePerMinute, cfg.RefreshBurst),
	).Routes()
	swagger.Register(router)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startServiceMetricsUpdater refreshes gauges derived from service state.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if players, ok := stats["players"].(int); ok {
		metrics.UpdatePlayersTotal(players)
	}
}
