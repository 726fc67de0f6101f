package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xbst/config"
	"github.com/benz9527/xbst/internal/shell"
	"github.com/benz9527/xbst/observability"
	"github.com/benz9527/xbst/render"
	"github.com/benz9527/xbst/xlog"
)

const (
	appName     = "xbst"
	metricsPath = "/metrics"
	prompt      = "xbst> "
)

type console struct {
	in  io.Reader
	out io.Writer
}

func appOptions(configPath string, in io.Reader, out io.Writer) []fx.Option {
	return []fx.Option{
		fx.Supply(console{in: in, out: out}),
		fx.Provide(
			func() (*config.Loader, error) { return config.Load(configPath) },
			newLogger,
			newMetrics,
			newShell,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(registerMetrics, registerShell),
	}
}

func newLogger(lc fx.Lifecycle, loader *config.Loader) xlog.XLogger {
	logger := xlog.NewXLogger(loader.Config().LoggerOptions()...)
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger
}

func newMetrics(loader *config.Loader) (*observability.Metrics, error) {
	cfg := loader.Config().Metrics
	exporter, err := observability.ParseMetricsExporter(cfg.Exporter)
	if err != nil {
		return nil, err
	}
	return observability.InitMetrics(exporter, cfg.Interval)
}

func newShell(c console, loader *config.Loader, logger xlog.XLogger, metrics *observability.Metrics) (*shell.Shell, error) {
	cfg := loader.Config()
	reloads := make(chan config.Config, 1)
	if loader.Watch(func(cfg config.Config, err error) {
		if err != nil {
			logger.Warn("config reload rejected", zap.String("file", loader.File()), zap.Error(err))
			return
		}
		select {
		case reloads <- cfg:
		default:
			// The shell has not picked up the previous reload yet, the
			// loader keeps the latest one for the config command.
			logger.Warn("config reload dropped", zap.String("file", loader.File()))
		}
	}) {
		logger.Info("watching config", zap.String("file", loader.File()))
	}

	opts := []shell.ShellOption{
		shell.WithShellPrompt(prompt),
		shell.WithShellLogger(logger),
		shell.WithShellStyle(render.Style{Color: cfg.Render.Color}),
		shell.WithShellStepwise(cfg.Engine.Stepwise),
		shell.WithShellConfig(loader.Config, reloads),
	}
	if metrics.Exporter != observability.NoneExporter {
		opts = append(opts, shell.WithShellStats(observability.NewTreeStats(appName)))
	}
	return shell.New(c.in, c.out, opts...)
}

func registerMetrics(lc fx.Lifecycle, loader *config.Loader, metrics *observability.Metrics, logger xlog.XLogger) {
	if metrics.Exporter != observability.NoneExporter {
		observability.InitAppStats(context.Background(), appName, nil)
	}
	if metrics.Handler == nil {
		lc.Append(fx.StopHook(metrics.Shutdown))
		return
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, metrics.Handler)
	srv := &http.Server{
		Addr:              loader.Config().Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("serving metrics", zap.String("addr", ln.Addr().String()), zap.String("path", metricsPath))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return multierr.Combine(srv.Shutdown(ctx), metrics.Shutdown(ctx))
		},
	})
}

// registerShell runs the console once the app started and shuts the app
// down when the console quits.
func registerShell(lc fx.Lifecycle, sh *shell.Shell, shutdowner fx.Shutdowner, logger xlog.XLogger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error(err, "shell stopped")
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
