package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	bencherrors "github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/logging"
	"github.com/copyleftdev/tundr-bench/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the suite over HTTP and JSON-RPC",
	Long: `Starts the evaluation service. Problems are listed and evaluated under
/api/v1/problems and through the JSON-RPC endpoint /rpc. Prometheus metrics
are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides HTTP_PORT)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter assembles the middleware stack and the service routes.
func newRouter(logger *logging.Logger, srv *server.Server, gatherer prometheus.Gatherer, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(bencherrors.ErrorHandler(logger))
	r.Use(bencherrors.RecoveryMiddleware(logger))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv.RegisterRoutes(r)
	return r
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.HTTP.Port = servePort
	}

	bench, err := loadSuite()
	if err != nil {
		return err
	}

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": "tundr-bench",
		"version": version,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	srv := server.NewServer(cfg, serviceLogger, bench, server.NewMetrics(reg))
	defer func() {
		if err := srv.Close(); err != nil {
			serviceLogger.Error("error closing server resources", map[string]interface{}{"error": err})
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      newRouter(serviceLogger, srv, reg, cfg.HTTP.WriteTimeout),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address": httpServer.Addr,
		})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	serviceLogger.Info("Server stopped")
	return nil
}
