package domain

import (
	"fmt"
	"strings"
	"time"
)

// Audio format constants shared by every stage of the pipeline.
const (
	// SampleRate is the sample rate of every block, in Hz.
	SampleRate = 48000

	// MicBlockFrames is the nominal microphone tap size.
	MicBlockFrames = 256

	// QueueCapacity is the number of blocks each source queue retains.
	QueueCapacity = 5

	// FlushInterval is the period between chunk flushes.
	FlushInterval = 3000 * time.Millisecond

	// BytesPerSample is the size of one f32le sample.
	BytesPerSample = 4

	// AudioFormat is the wire name of the chunk encoding.
	AudioFormat = "f32le"
)

// FrameBlock is one mono block of float32 samples at SampleRate.
// A block is not modified after it is handed to a queue.
type FrameBlock []float32

// Duration returns the playback length of the block.
func (b FrameBlock) Duration() time.Duration {
	return time.Duration(len(b)) * time.Second / SampleRate
}

// Source identifies which capture path produced a block.
type Source int

const (
	SourceApp Source = iota
	SourceMic
)

// String returns the label used in logs and metrics.
func (s Source) String() string {
	switch s {
	case SourceApp:
		return "app"
	case SourceMic:
		return "mic"
	default:
		return "unknown"
	}
}

// Mode selects which sources feed the mixer output.
type Mode int

const (
	// ModeMix mixes application and microphone audio.
	ModeMix Mode = iota
	// ModeTab passes application audio only.
	ModeTab
	// ModeMic passes microphone audio only.
	ModeMic
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMix:
		return "mix"
	case ModeTab:
		return "tab"
	case ModeMic:
		return "mic"
	default:
		return "unknown"
	}
}

// Accepts reports whether blocks from src are used in this mode.
func (m Mode) Accepts(src Source) bool {
	switch m {
	case ModeTab:
		return src == SourceApp
	case ModeMic:
		return src == SourceMic
	default:
		return true
	}
}

// ParseMode parses a mode name. "tab-only", "app" and "mic-only" are
// accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mix":
		return ModeMix, nil
	case "tab", "tab-only", "app":
		return ModeTab, nil
	case "mic", "mic-only":
		return ModeMic, nil
	default:
		return ModeMix, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// Channel selects which channel of an interleaved stereo block is kept.
type Channel int

const (
	ChannelLeft Channel = iota
	ChannelRight
)

// ParseChannel parses "left" or "right".
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return ChannelLeft, nil
	case "right":
		return ChannelRight, nil
	default:
		return ChannelLeft, fmt.Errorf("%w: unknown channel %q", ErrInvalidConfig, s)
	}
}

// String returns the configuration name of the channel.
func (c Channel) String() string {
	if c == ChannelRight {
		return "right"
	}
	return "left"
}

// ExtractChannel copies one channel out of an interleaved stereo block.
// A trailing odd sample is ignored.
func ExtractChannel(stereo []float32, ch Channel) FrameBlock {
	n := len(stereo) / 2
	out := make(FrameBlock, n)
	off := int(ch)
	for i := 0; i < n; i++ {
		out[i] = stereo[2*i+off]
	}
	return out
}
