// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

const namespace = "audioship"

// sessionStates lists every value SessionState may receive so the gauge
// vector always exports a complete one-hot set.
var sessionStates = []string{"Idle", "Opening", "Streaming", "Closing"}

// Metrics contains all Prometheus metrics for the capture pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// Source queue metrics
	BlocksEnqueued  *prometheus.CounterVec
	BlocksEvicted   *prometheus.CounterVec
	BlocksDiscarded *prometheus.CounterVec

	// Mixer metrics
	BlocksMerged *prometheus.CounterVec

	// Transport metrics
	ChunksSent        prometheus.Counter
	ChunkSendFailures prometheus.Counter
	ChunksSkipped     *prometheus.CounterVec
	ChunkBytes        prometheus.Histogram
	ChunkSendDuration prometheus.Histogram

	// Session metrics
	State *prometheus.GaugeVec
}

// New creates all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		BlocksEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_enqueued_total",
			Help:      "Total number of capture blocks placed on a source queue",
		}, []string{"source"}),
		BlocksEvicted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_evicted_total",
			Help:      "Total number of queued blocks evicted because the queue was full",
		}, []string{"source"}),
		BlocksDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_discarded_total",
			Help:      "Total number of capture blocks discarded because the mode excludes the source",
		}, []string{"source"}),

		BlocksMerged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_blocks_total",
			Help:      "Total number of blocks emitted by the mixer by merge kind",
		}, []string{"kind"}),

		ChunksSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_sent_total",
			Help:      "Total number of audio chunks sent",
		}),
		ChunkSendFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_send_failures_total",
			Help:      "Total number of audio chunks that failed to send",
		}),
		ChunksSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_ticks_skipped_total",
			Help:      "Total number of flush ticks that sent nothing",
		}, []string{"reason"}),
		ChunkBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_bytes",
			Help:      "Raw PCM bytes per sent chunk",
			Buckets:   prometheus.ExponentialBuckets(4096, 2, 10), // 4KiB to 2MiB
		}),
		ChunkSendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_send_duration_seconds",
			Help:      "Time spent writing a chunk to the channel",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}),

		State: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
	}
	m.SessionState("Idle")
	return m
}

// BlockEnqueued implements ports.Metrics.
func (m *Metrics) BlockEnqueued(source string) { m.BlocksEnqueued.WithLabelValues(source).Inc() }

// BlockEvicted implements ports.Metrics.
func (m *Metrics) BlockEvicted(source string) { m.BlocksEvicted.WithLabelValues(source).Inc() }

// BlockDiscarded implements ports.Metrics.
func (m *Metrics) BlockDiscarded(source string) { m.BlocksDiscarded.WithLabelValues(source).Inc() }

// BlockMerged implements ports.Metrics.
func (m *Metrics) BlockMerged(kind string) { m.BlocksMerged.WithLabelValues(kind).Inc() }

// ChunkSent implements ports.Metrics.
func (m *Metrics) ChunkSent(bytes int, took time.Duration) {
	m.ChunksSent.Inc()
	m.ChunkBytes.Observe(float64(bytes))
	m.ChunkSendDuration.Observe(took.Seconds())
}

// ChunkSendFailed implements ports.Metrics.
func (m *Metrics) ChunkSendFailed() { m.ChunkSendFailures.Inc() }

// ChunkSkipped implements ports.Metrics.
func (m *Metrics) ChunkSkipped(reason string) { m.ChunksSkipped.WithLabelValues(reason).Inc() }

// SessionState implements ports.Metrics.
func (m *Metrics) SessionState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.State.WithLabelValues(s).Set(v)
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger ports.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", ports.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var _ ports.Metrics = (*Metrics)(nil)
