// cmd/kaspi-parser/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dst88/kaspi-parser/internal/api"
	"github.com/Dst88/kaspi-parser/internal/config"
	"github.com/Dst88/kaspi-parser/internal/monitoring"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/runner"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// drainTimeout bounds how long serve waits for an aborted run to export.
const drainTimeout = 30 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var (
		listen string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run controller over HTTP",
		Long: `Serve the run controller over HTTP.

Endpoints:
  GET    /health               health checks
  GET    /metrics              Prometheus metrics
  GET    /api/v1/formats       supported output formats
  POST   /api/v1/runs          start a run: {"url": "...", "format": "xlsx"}
  GET    /api/v1/runs/current  state of the active run and its log
  DELETE /api/v1/runs/current  stop the active run
  GET    /api/v1/runs/last     result of the most recent run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if watch && c.configFile == "" {
				return utils.NewError(utils.ErrCodeValidation, "--watch requires --config").Build()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, cfg, watch)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", config.DefaultListen, "listen address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the configuration file when it changes")
	return cmd
}

func (c *cli) serve(ctx context.Context, cfg *config.Config, watch bool) error {
	logger := utils.NewComponentLogger("serve")

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	catalogOpts, err := cfg.CatalogOptions()
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInvalidConfig, "invalid catalog settings")
	}

	transform, err := cfg.Pipeline(utils.NewComponentLogger("pipeline"))
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInvalidConfig, "invalid transforms")
	}

	metrics := monitoring.NewMetricsManager(cfg.Metrics)
	health := monitoring.NewHealthManager(5 * time.Second)
	health.RegisterCheck(monitoring.OutputDirHealthCheck(cfg.Output.Dir))
	health.RegisterCheck(monitoring.BrowserHealthCheck(cfg.Browser.ExecPath))
	health.RegisterCheck(monitoring.GoroutineHealthCheck(1000))

	ctrl, err := runner.New(runner.Options{
		Catalog:  catalogOpts,
		Sessions: c.sessionFactory(current.Load),
		Destination: func(runID string, format output.Format) string {
			return destination(current.Load())(runID, format)
		},
		Exporter:  output.NewManager(cfg.OutputOptions(), logger),
		Transform: transform,
		Metrics:   metrics,
		Logger:    utils.NewComponentLogger("runner"),
		LogBuffer: cfg.Server.LogBuffer,
	})
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInternal, "failed to create run controller")
	}

	limiter := utils.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst)

	if watch {
		watcher, err := config.NewConfigWatcher(c.configFile, logger)
		if err != nil {
			return utils.WrapError(err, utils.ErrCodeInvalidConfig, "failed to watch configuration")
		}
		defer watcher.Close()
		watcher.OnChange(func(next *config.Config) {
			opts, err := next.CatalogOptions()
			if err != nil {
				logger.Warnf("ignoring reloaded configuration: %v", err)
				return
			}
			transform, err := next.Pipeline(utils.NewComponentLogger("pipeline"))
			if err != nil {
				logger.Warnf("ignoring reloaded configuration: %v", err)
				return
			}
			current.Store(next)
			ctrl.Reconfigure(opts, transform)
			limiter.Update(next.Server.RateLimit, next.Server.Burst)
		})
	}

	srv, err := api.NewServer(api.Options{
		Controller:    ctrl,
		Metrics:       metrics,
		Health:        health,
		Limiter:       limiter,
		Logger:        utils.NewComponentLogger("api"),
		DefaultFormat: cfg.Output.Format,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
	})
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeInternal, "failed to create API server")
	}

	serveErr := srv.ListenAndServe(ctx, cfg.Server.Listen)

	// Whatever is still running is stopped and its records exported.
	if ctrl.Status().Active {
		logger.Info("stopping active run before exit")
		ctrl.Abort()
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if _, err := ctrl.Wait(drainCtx); err != nil {
			logger.Warnf("active run did not finish: %v", err)
		}
	}

	return serveErr
}
