// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/parquetkafka"
)

const namespace = "parquetkafka"

var (
	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total records by delivery outcome.",
		},
		[]string{"topic", "outcome"},
	)
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total record failures by error type.",
		},
		[]string{"topic", "error_type"},
	)
	deliveryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_latency_seconds",
			Help:      "Time from submission to delivery report.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
	datasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		recordsTotal,
		errorsTotal,
		deliveryLatency,
		datasetRows,
	)
}

// observeDelivery is the delivery listener feeding the metrics.
func observeDelivery(d *parquetkafka.Delivery) {
	recordsTotal.WithLabelValues(d.Topic, d.Outcome.String()).Inc()
	if d.ErrorType != "" {
		errorsTotal.WithLabelValues(d.Topic, d.ErrorType).Inc()
	}
	if d.Outcome != parquetkafka.Skipped {
		deliveryLatency.WithLabelValues(d.Topic).Observe(d.Duration.Seconds())
	}
}

// metricsHandler returns the HTTP handler for metrics and health checks.
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// startMetricsServer serves metricsHandler on addr until ctx is done.
func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("metrics server listening", "addr", addr)
}
