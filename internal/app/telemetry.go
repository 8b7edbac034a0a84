package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/draftgrid/internal/ctxlog"
)

// telemetryServer exposes liveness and Prometheus metrics for the duration
// of a run.
type telemetryServer struct {
	httpServer *http.Server
}

// healthHandler responds to liveness probes.
func (a *App) healthHandler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}
}

// startTelemetryServer runs the HTTP server in the background. Returns nil
// when the server is disabled.
func (a *App) startTelemetryServer(ctx context.Context) *telemetryServer {
	logger := ctxlog.FromContext(ctx)
	if a.config.TelemetryPort <= 0 {
		logger.Debug("Telemetry server not started: disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler(ctx))
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", a.config.TelemetryPort)
	srv := &telemetryServer{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}

	go func() {
		logger.Info("🩺 Telemetry server starting", "address", fmt.Sprintf("http://localhost%s/metrics", addr))
		if err := srv.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Telemetry server failed unexpectedly", "error", err)
		}
	}()
	return srv
}

func (s *telemetryServer) close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Debug("Shutting down telemetry server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Telemetry server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Telemetry server shut down gracefully.")
	return nil
}
