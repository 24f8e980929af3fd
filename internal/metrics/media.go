// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the ingest and playback paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Labels stay low-cardinality: no filenames, user names or request IDs.

var (
	// UploadsTotal counts finished upload requests by result.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oldtube_uploads_total",
		Help: "Total number of upload requests, by result (ok, invalid, error).",
	}, []string{"result"})

	// UploadBytesTotal counts persisted video bytes.
	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oldtube_upload_bytes_total",
		Help: "Total number of video bytes persisted by uploads.",
	})

	// ConversionsTotal counts transcoder outcomes.
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oldtube_conversions_total",
		Help: "Total number of conversion attempts, by outcome (converted, passthrough, skipped, failed).",
	}, []string{"outcome"})

	// ThumbnailsTotal counts thumbnail outcomes.
	ThumbnailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oldtube_thumbnails_total",
		Help: "Total number of thumbnails, by outcome (uploaded, generated, disabled, skipped, failed).",
	}, []string{"outcome"})

	// ToolDuration observes external tool runtime.
	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oldtube_tool_duration_seconds",
		Help:    "Duration of external tool invocations, by operation and result.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"op", "result"})

	// ToolQueueWait observes time spent waiting for a worker slot.
	ToolQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oldtube_tool_queue_wait_seconds",
		Help:    "Time spent waiting for a free tool worker.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// ToolWorkersBusy tracks occupied tool worker slots.
	ToolWorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oldtube_tool_workers_busy",
		Help: "Current number of busy tool workers.",
	})

	// MediaRequestsTotal counts media responses by kind and response shape.
	MediaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oldtube_media_requests_total",
		Help: "Total number of media requests, by kind (video, thumb) and response (full, partial, not_found).",
	}, []string{"kind", "response"})

	// MediaBytesServed counts body bytes streamed by the range server.
	MediaBytesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oldtube_media_bytes_served_total",
		Help: "Total number of body bytes written for partial media responses, by kind.",
	}, []string{"kind"})
)

// RecordUpload increments the upload counter.
func RecordUpload(result string) {
	UploadsTotal.WithLabelValues(result).Inc()
}

// AddUploadBytes adds persisted upload bytes.
func AddUploadBytes(n int64) {
	if n > 0 {
		UploadBytesTotal.Add(float64(n))
	}
}

// RecordConversion increments the conversion counter.
func RecordConversion(outcome string) {
	ConversionsTotal.WithLabelValues(outcome).Inc()
}

// RecordThumbnail increments the thumbnail counter.
func RecordThumbnail(outcome string) {
	ThumbnailsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTool records one external tool invocation.
func ObserveTool(op string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	ToolDuration.WithLabelValues(op, result).Observe(d.Seconds())
}

// ObserveQueueWait records how long a job waited for a worker.
func ObserveQueueWait(d time.Duration) {
	ToolQueueWait.Observe(d.Seconds())
}

// IncWorkersBusy marks a worker slot as taken.
func IncWorkersBusy() { ToolWorkersBusy.Inc() }

// DecWorkersBusy releases a worker slot.
func DecWorkersBusy() { ToolWorkersBusy.Dec() }

// RecordMediaRequest increments the media request counter.
func RecordMediaRequest(kind, response string) {
	MediaRequestsTotal.WithLabelValues(kind, response).Inc()
}

// AddMediaBytes adds streamed body bytes.
func AddMediaBytes(kind string, n int64) {
	if n > 0 {
		MediaBytesServed.WithLabelValues(kind).Add(float64(n))
	}
}

// CounterValue reads the current value of a counter, for tests and diagnostics.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// GaugeValue reads the current value of a gauge.
func GaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
