//go:build portaudio
// +build portaudio

package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

// PortAudioCapturer taps the default input device.
type PortAudioCapturer struct {
	frames int
	logger ports.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudioCapturer creates a mono capturer delivering framesPerBlock
// frames per callback.
func NewPortAudioCapturer(framesPerBlock int, logger ports.Logger) *PortAudioCapturer {
	if framesPerBlock <= 0 {
		framesPerBlock = domain.MicBlockFrames
	}
	return &PortAudioCapturer{frames: framesPerBlock, logger: logger}
}

// Probe implements ports.Prober.
func (m *PortAudioCapturer) Probe(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing portaudio: %v", domain.ErrSourceUnavailable, err)
	}
	defer portaudio.Terminate()

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		return fmt.Errorf("%w: no input device: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// Start implements ports.Capturer.
func (m *PortAudioCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(domain.SampleRate), m.frames, func(in []float32) {
		deliver(in)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started",
		ports.Int("sample_rate", domain.SampleRate),
		ports.Int("frames", m.frames),
	)
	return nil
}

// Stop implements ports.Capturer.
func (m *PortAudioCapturer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	_ = m.stream.Stop()
	_ = m.stream.Close()
	m.stream = nil
	m.logger.Info("microphone stopped")
	return portaudio.Terminate()
}

// PortAudioAvailable reports whether this binary was built with PortAudio.
const PortAudioAvailable = true
