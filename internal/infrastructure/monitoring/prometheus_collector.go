package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	recordingsActive prometheus.Gauge
	liveSessions     prometheus.Gauge
	viewersCurrent   *prometheus.GaugeVec
	studioClients    prometheus.Gauge

	// Counters
	markersTotal       *prometheus.CounterVec
	recordingsSaved    prometheus.Counter
	saveFailures       *prometheus.CounterVec
	uploadedBytesTotal prometheus.Counter
	chunksTotal        prometheus.Counter

	// Histograms
	recordingDuration prometheus.Histogram
	saveDuration      prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		recordingsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studio_recordings_active",
			Help: "Number of recordings currently in progress",
		}),

		liveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studio_live_sessions",
			Help: "Number of live broadcasts currently running",
		}),

		viewersCurrent: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "studio_viewers_current",
			Help: "Current active viewer count per broadcast",
		}, []string{"user_id"}),

		studioClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studio_clients_connected",
			Help: "Number of connected studio WebSocket clients",
		}),

		markersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_markers_total",
			Help: "Total number of timeline markers placed",
		}, []string{"type"}),

		recordingsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_recordings_saved_total",
			Help: "Total number of recordings saved to the media library",
		}),

		saveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_save_failures_total",
			Help: "Total number of save pipeline step failures",
		}, []string{"step"}),

		uploadedBytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_uploaded_bytes_total",
			Help: "Total bytes uploaded to object storage",
		}),

		chunksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_recording_chunks_total",
			Help: "Total number of recording chunks captured",
		}),

		recordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studio_recording_duration_seconds",
			Help:    "Duration of finished recordings",
			Buckets: prometheus.ExponentialBuckets(10, 2, 11),
		}),

		saveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studio_save_duration_seconds",
			Help:    "Duration of the save pipeline",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

func (p *PrometheusCollector) RecordRecordingStarted() {
	p.recordingsActive.Inc()
}

func (p *PrometheusCollector) RecordRecordingStopped(duration time.Duration) {
	p.recordingsActive.Dec()
	p.recordingDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordMarker(markerType string) {
	p.markersTotal.WithLabelValues(markerType).Inc()
}

func (p *PrometheusCollector) RecordLiveStarted() {
	p.liveSessions.Inc()
}

func (p *PrometheusCollector) RecordLiveStopped(userID string) {
	p.liveSessions.Dec()
	p.viewersCurrent.DeleteLabelValues(userID)
}

func (p *PrometheusCollector) RecordViewers(userID string, count int) {
	p.viewersCurrent.WithLabelValues(userID).Set(float64(count))
}

func (p *PrometheusCollector) RecordStudioClients(count int) {
	p.studioClients.Set(float64(count))
}

func (p *PrometheusCollector) RecordChunk() {
	p.chunksTotal.Inc()
}

func (p *PrometheusCollector) RecordSaveCompleted(uploadedBytes int64, duration time.Duration) {
	p.recordingsSaved.Inc()
	p.uploadedBytesTotal.Add(float64(uploadedBytes))
	p.saveDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordSaveFailure(step string) {
	p.saveFailures.WithLabelValues(step).Inc()
}
