package app

import (
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/queue"
)

// feeder holds what both sources share: the mode gate, the queue they own
// and the mixer trigger they fire after each enqueue.
type feeder struct {
	src     domain.Source
	mode    domain.Mode
	queue   *queue.SourceQueue
	trigger func()
	metrics ports.Metrics
}

func (f *feeder) enqueue(b domain.FrameBlock) {
	if len(b) == 0 {
		return
	}
	label := f.src.String()
	if f.queue.Push(b) {
		f.metrics.BlockEvicted(label)
	}
	f.metrics.BlockEnqueued(label)
	f.trigger()
}

func (f *feeder) accepts() bool {
	if f.mode.Accepts(f.src) {
		return true
	}
	f.metrics.BlockDiscarded(f.src.String())
	return false
}

// AppAudioSource turns interleaved stereo blocks from an application
// capturer into mono frame blocks on the app queue.
type AppAudioSource struct {
	feeder
	channel domain.Channel
}

// NewAppAudioSource creates an application source. trigger is invoked after
// every enqueue and must not block.
func NewAppAudioSource(mode domain.Mode, ch domain.Channel, q *queue.SourceQueue, trigger func(), metrics ports.Metrics) *AppAudioSource {
	return &AppAudioSource{
		feeder: feeder{
			src:     domain.SourceApp,
			mode:    mode,
			queue:   q,
			trigger: trigger,
			metrics: metrics,
		},
		channel: ch,
	}
}

// Feed accepts one interleaved stereo block. It never blocks; in mic-only
// mode the block is discarded.
func (s *AppAudioSource) Feed(stereo []float32) {
	if !s.accepts() {
		return
	}
	s.enqueue(domain.ExtractChannel(stereo, s.channel))
}

// MicAudioSource places mono microphone blocks on the mic queue.
type MicAudioSource struct {
	feeder
}

// NewMicAudioSource creates a microphone source. trigger is invoked after
// every enqueue and must not block.
func NewMicAudioSource(mode domain.Mode, q *queue.SourceQueue, trigger func(), metrics ports.Metrics) *MicAudioSource {
	return &MicAudioSource{
		feeder: feeder{
			src:     domain.SourceMic,
			mode:    mode,
			queue:   q,
			trigger: trigger,
			metrics: metrics,
		},
	}
}

// Feed accepts one mono block. The samples are copied so the capturer may
// reuse its buffer. In tab-only mode the block is discarded.
func (s *MicAudioSource) Feed(mono []float32) {
	if !s.accepts() {
		return
	}
	b := make(domain.FrameBlock, len(mono))
	copy(b, mono)
	s.enqueue(b)
}
