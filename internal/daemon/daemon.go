package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/api"
	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/health"
	"github.com/habitloop/habitloop/internal/infra/sqlite"
	"github.com/habitloop/habitloop/internal/logging"
	"github.com/habitloop/habitloop/internal/websocket"
)

// Daemon is the habitloop runtime. It wires together all services.
type Daemon struct {
	Config        Config
	DB            *sqlite.DB
	Engine        *engagement.Engine
	Notifications *engagement.NotificationService
	Hub           *websocket.Hub
	Health        *health.Checker
	Server        *api.Server
	Log           *zap.Logger

	reminders *engagement.Scheduler
	nudges    *engagement.Scheduler
	closeLog  func() error
	cancel    context.CancelFunc
}

// Options adjusts how the daemon is assembled.
type Options struct {
	// Quiet keeps console logging off; the log file still receives entries.
	// CLI one-shot commands use it so their output stays readable.
	Quiet bool
	// Clock overrides the system clock.
	Clock clock.Clock
	// Home overrides the data directory. New reads config.toml and places
	// the default log file there; NewWithConfig takes cfg as given and only
	// opens the database there.
	Home string
}

// New loads configuration and creates a Daemon with all services wired.
func New(opts Options) (*Daemon, error) {
	if opts.Home == "" {
		opts.Home = habitloopHome()
	}
	cfg, err := LoadConfigFrom(opts.Home)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, opts Options) (*Daemon, error) {
	home := opts.Home
	if home == "" {
		home = habitloopHome()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logOpts := logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxFiles:   cfg.Logging.MaxFiles,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if opts.Quiet {
		logOpts.Console = io.Discard
	}
	logger, closeLog, err := logging.Setup(logOpts)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	// Open SQLite
	db, err := sqlite.Open(home)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}

	hub := websocket.NewHub(logger.Named("ws"))
	notifs := engagement.NewNotificationService(db, hub, cfg.Nudges.Policy(), clk, logger.Named("notify"))

	eng, err := engagement.NewEngine(engagement.Options{
		Store:    db,
		Notifier: notifs,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		_ = db.Close()
		_ = closeLog()
		return nil, fmt.Errorf("load engagement state: %w", err)
	}

	checker := health.NewChecker(db, home, logger.Named("health"))

	srv := api.NewServer(eng, logger.Named("api"))
	srv.SetNotifications(notifs)
	srv.SetHub(hub)
	srv.SetHealthChecker(checker)
	srv.SetRateLimit(cfg.API.RateLimitPerMinute)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	d := &Daemon{
		Config:        cfg,
		DB:            db,
		Engine:        eng,
		Notifications: notifs,
		Hub:           hub,
		Health:        checker,
		Server:        srv,
		Log:           logger,
		reminders:     eng.NewReminderScheduler(cfg.Reminders.TickInterval),
		closeLog:      closeLog,
	}
	if cfg.Nudges.Enabled {
		d.nudges = eng.NewNudgeScheduler(cfg.Nudges.Interval)
	}
	return d, nil
}

// Serve starts the background loops and the HTTP server and blocks until
// ctx is canceled or the process receives SIGINT/SIGTERM.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	d.reminders.Start(ctx)
	if d.nudges != nil {
		d.nudges.Start(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		d.stopLoops()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.Log.Warn("http shutdown", zap.Error(err))
		}
	}()

	d.Log.Info("serving",
		zap.String("addr", addr),
		zap.Duration("reminder_tick", d.reminders.Interval()),
		zap.Bool("nudges", d.nudges != nil),
		zap.Bool("metrics", d.Config.Telemetry.Prometheus))
	fmt.Printf("habitloop serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		d.stopLoops()
		return err
	}
	return nil
}

// stopLoops stops the schedulers; no tick runs after it returns.
func (d *Daemon) stopLoops() {
	if d.cancel != nil {
		d.cancel()
	}
	d.reminders.Stop()
	if d.nudges != nil {
		d.nudges.Stop()
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	d.stopLoops()
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.closeLog != nil {
		_ = d.closeLog()
	}
}
