package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ircline/config"
	"ircline/internal/metrics"
	"ircline/irc"
	"ircline/util"
)

// statusResponse is the body of GET /status.
type statusResponse struct {
	Server  string           `json:"server"`
	State   string           `json:"state"`
	Metrics metrics.Snapshot `json:"metrics"`
}

// newStatusRouter exposes the client's counters on /metrics in the
// Prometheus text format and a JSON summary on /status.
func newStatusRouter(client *irc.Client, m *metrics.Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(m)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		cfg := client.Config()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{ //nolint:errcheck
			Server:  util.FormatAddr(cfg.Server, cfg.Port),
			State:   client.State().String(),
			Metrics: m.Snapshot(),
		})
	})
	return r
}

// serveStatus listens on addr until ctx is cancelled.
func serveStatus(ctx context.Context, addr string, h http.Handler, logger *util.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("status server on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
