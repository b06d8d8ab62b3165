package app

import (
	"context"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/queue"
)

// Merge kinds reported to metrics.
const (
	MergeMixed    = "mixed"
	MergeApp      = "app"
	MergeMic      = "mic"
	MergeMismatch = "mismatch"
)

// BlockSink receives every block the mixer emits.
type BlockSink func(domain.FrameBlock)

// SyncMixer drains the two source queues and applies the merge policy of
// its mode. A single goroutine runs the mixer; producers only call Trigger.
type SyncMixer struct {
	mode    domain.Mode
	app     *queue.SourceQueue
	mic     *queue.SourceQueue
	sinks   []BlockSink
	notify  chan struct{}
	logger  ports.Logger
	metrics ports.Metrics
}

// NewSyncMixer creates a mixer over the given queues. Every emitted block is
// passed to each sink in order.
func NewSyncMixer(mode domain.Mode, app, mic *queue.SourceQueue, logger ports.Logger, metrics ports.Metrics, sinks ...BlockSink) *SyncMixer {
	return &SyncMixer{
		mode:    mode,
		app:     app,
		mic:     mic,
		sinks:   sinks,
		notify:  make(chan struct{}, 1),
		logger:  logger,
		metrics: metrics,
	}
}

// Trigger wakes the mixer. Wakeups coalesce; Trigger never blocks.
func (m *SyncMixer) Trigger() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Run evaluates the merge policy after every trigger until ctx is done.
// Coalesced triggers are covered by draining until a step emits nothing.
func (m *SyncMixer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.notify:
			for m.Step() {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// Step applies the merge policy once. It reports whether a block was
// emitted.
func (m *SyncMixer) Step() bool {
	var (
		out  domain.FrameBlock
		kind string
	)

	switch m.mode {
	case domain.ModeTab:
		b, ok := m.app.Pop()
		if !ok {
			return false
		}
		out, kind = b, MergeApp
	case domain.ModeMic:
		b, ok := m.mic.Pop()
		if !ok {
			return false
		}
		out, kind = b, MergeMic
	default:
		a, b, okA, okB := m.app.PopPair(m.mic)
		switch {
		case okA && okB:
			if len(a) == len(b) {
				out, kind = Mix(a, b), MergeMixed
			} else {
				m.logger.Debug("block length mismatch, dropping mic block",
					ports.Int("app_frames", len(a)),
					ports.Int("mic_frames", len(b)),
				)
				m.metrics.BlockDiscarded(domain.SourceMic.String())
				out, kind = a, MergeMismatch
			}
		case okA:
			out, kind = a, MergeApp
		case okB:
			out, kind = b, MergeMic
		default:
			return false
		}
	}

	m.metrics.BlockMerged(kind)
	for _, sink := range m.sinks {
		sink(out)
	}
	return true
}

// Mix averages two equal-length blocks: out[i] = 0.5*a[i] + 0.5*b[i].
// Each product is rounded to float32 before the sum so the result does not
// depend on fused multiply-add.
func Mix(a, b domain.FrameBlock) domain.FrameBlock {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make(domain.FrameBlock, n)
	for i := 0; i < n; i++ {
		out[i] = float32(0.5*a[i]) + float32(0.5*b[i])
	}
	return out
}
