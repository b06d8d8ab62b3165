//go:build !portaudio
// +build !portaudio

package capture

import (
	"context"
	"fmt"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

// PortAudioCapturer stub when portaudio is not available.
type PortAudioCapturer struct{}

// NewPortAudioCapturer returns a capturer that always fails to start.
func NewPortAudioCapturer(framesPerBlock int, logger ports.Logger) *PortAudioCapturer {
	return &PortAudioCapturer{}
}

// Probe implements ports.Prober.
func (m *PortAudioCapturer) Probe(ctx context.Context) error {
	return fmt.Errorf("%w: microphone source not available: rebuild with -tags portaudio", domain.ErrSourceUnavailable)
}

// Start implements ports.Capturer.
func (m *PortAudioCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	return fmt.Errorf("%w: microphone source not available: rebuild with -tags portaudio", domain.ErrCaptureStart)
}

// Stop implements ports.Capturer.
func (m *PortAudioCapturer) Stop() error {
	return nil
}

// PortAudioAvailable reports whether this binary was built with PortAudio.
const PortAudioAvailable = false
