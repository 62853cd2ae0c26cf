package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/tabi"
	"github.com/aretw0/tabi/internal/cli"
	httpAdapter "github.com/aretw0/tabi/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web form and JSON API",
	Long:  `Serves the planning form at / and the JSON API under /api/v1, with Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		cli.WarnMissing(logger, cfg)
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		secure, _ := cmd.Flags().GetBool("secure-cookies")
		watch, _ := cmd.Flags().GetBool("watch")

		app, err := tabi.New(cfg,
			tabi.WithLogger(logger),
			tabi.WithMetrics(prometheus.DefaultRegisterer),
		)
		if err != nil {
			return err
		}
		defer app.Close()

		handler, err := httpAdapter.NewHandler(app,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(strings.TrimSpace(tabi.Version)),
			httpAdapter.WithSecureCookies(secure),
			httpAdapter.WithHealthCheck("cache", app.Ping),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if watch {
			go func() {
				err := cli.WatchKnowledge(ctx, app, logger, func() {
					if err := app.FlushCache(ctx); err != nil {
						logger.Warn("stale context may be served until it expires", "error", err)
					}
				})
				if err != nil {
					logger.Warn("knowledge watch unavailable", "error", err)
				}
			}()
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting tabi server", "addr", srv.Addr, "knowledge", cfg.Knowledge.Dir, "providers", app.Providers())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			logger.Info("tabi server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("secure-cookies", false, "Mark the session cookie Secure (behind TLS)")
	serveCmd.Flags().Bool("watch", false, "Drop cached context when the knowledge base changes")
}
