// Package metrics exposes Prometheus counters for the provisioning backend
// and a standalone metrics server that serves them on a separate listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PayloadsBuilt counts successfully assembled Device Owner provisioning payloads.
	PayloadsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provisioning_payloads_built_total",
		Help: "Number of Device Owner provisioning payloads built",
	})

	// OverrideFallbacks counts checksum overrides discarded at build time
	// because they failed normalization.
	OverrideFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provisioning_override_fallbacks_total",
		Help: "Number of malformed checksum overrides discarded in favor of the computed checksum",
	})

	// CommandsRelayed counts device commands relayed through the registry, by command type.
	CommandsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_commands_relayed_total",
		Help: "Number of commands relayed to devices",
	}, []string{"command"})

	// PackageUploads counts accepted package uploads.
	PackageUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "package_uploads_total",
		Help: "Number of accepted APK uploads",
	})

	// PackageDownloads counts package downloads served.
	PackageDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "package_downloads_total",
		Help: "Number of APK downloads served",
	})
)

// MetricsServer serves the Prometheus registry on its own listener so the
// public API surface never exposes operational data.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server bound to listenAddr.
func New(listenAddr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint until Shutdown.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
