package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/wphook"
	"github.com/aretw0/wphook/internal/config"
	httpAdapter "github.com/aretw0/wphook/pkg/adapters/http"
	"github.com/aretw0/wphook/pkg/domain"
	"github.com/aretw0/wphook/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// DefaultHome is where / redirects to.
const DefaultHome = "https://github.com/aretw0/wphook"

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the XML-RPC webhook server",
	Long: `Starts an HTTP server that answers metaWeblog XML-RPC calls on the configured path,
runs the configured handlers for every new post and exposes Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		path, _ := cmd.Flags().GetString("config")
		port, _ := cmd.Flags().GetString("port")
		home, _ := cmd.Flags().GetString("home")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if port != "" {
			cfg.Listen = net.JoinHostPort("", port)
		}

		app, err := newApp(cfg, logger, debug, home)
		if err != nil {
			return err
		}
		defer app.Close()

		pingCtx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		if err := app.built.Ping(pingCtx); err != nil {
			logger.Warn("Redis handlers are not reachable yet", "error", err)
		}
		cancel()

		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           app.router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting wphook server", "addr", srv.Addr, "path", cfg.Path, "config", path)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "error", err)
				}
			}
			app.hook.Wait()
			logger.Info("wphook server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides listen from the config file)")
	serveCmd.Flags().String("home", DefaultHome, "Where requests to / are redirected")
}

// app is the wired server: router, webhook middleware and handler resources.
type app struct {
	router   http.Handler
	hook     *wphook.Webhook
	built    *config.Built
	registry *prometheus.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger, debug bool, home string) (*app, error) {
	built, err := config.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build handlers: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewMetrics(registry).Hooks()
	if debug {
		hooks = domain.MergeHooks(hooks, observability.DebugHooks(logger))
	}

	hook, err := wphook.New(built.Registration,
		wphook.WithLogger(logger),
		wphook.WithHooks(hooks),
		wphook.WithRelay(!cfg.Relay.Disabled),
		wphook.WithHTTPClient(&http.Client{Timeout: cfg.Relay.Timeout}),
		wphook.WithPath(cfg.Path),
		wphook.WithAdminPrefix(cfg.AdminPrefixOr(httpAdapter.DefaultAdminPrefix)),
		wphook.WithMaxBodySize(maxBodySize(cfg)),
	)
	if err != nil {
		_ = built.Close()
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(hook.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, home, http.StatusFound)
	})

	return &app{router: r, hook: hook, built: built, registry: registry}, nil
}

// Close waits for pending relays and releases handler resources.
func (a *app) Close() error {
	a.hook.Wait()
	return a.built.Close()
}

func maxBodySize(cfg *config.Config) int64 {
	if cfg.MaxBodySize > 0 {
		return cfg.MaxBodySize
	}
	return httpAdapter.DefaultMaxBodySize
}
