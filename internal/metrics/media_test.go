// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func TestRecordersIncrementCounters(t *testing.T) {
	before := metrics.CounterValue(metrics.UploadsTotal.WithLabelValues("ok"))
	metrics.RecordUpload("ok")
	require.Equal(t, before+1, metrics.CounterValue(metrics.UploadsTotal.WithLabelValues("ok")))

	beforeBytes := metrics.CounterValue(metrics.MediaBytesServed.WithLabelValues("video"))
	metrics.AddMediaBytes("video", 100)
	metrics.AddMediaBytes("video", 0)
	require.Equal(t, beforeBytes+100, metrics.CounterValue(metrics.MediaBytesServed.WithLabelValues("video")))
}

func TestWorkersBusyGauge(t *testing.T) {
	before := metrics.GaugeValue(metrics.ToolWorkersBusy)
	metrics.IncWorkersBusy()
	require.Equal(t, before+1, metrics.GaugeValue(metrics.ToolWorkersBusy))
	metrics.DecWorkersBusy()
	require.Equal(t, before, metrics.GaugeValue(metrics.ToolWorkersBusy))
}

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordConversion("converted")
	metrics.ObserveTool("convert", true, 2*time.Second)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `oldtube_conversions_total{outcome="converted"}`))
	require.True(t, strings.Contains(string(body), `oldtube_tool_duration_seconds_bucket{op="convert",result="ok"`))
}
