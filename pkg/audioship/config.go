package audioship

import (
	"fmt"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
)

// Capture backends for Config.AppSource and Config.MicSource.
const (
	SourcePulse     = "pulse"
	SourcePortAudio = "portaudio"
	SourcePipe      = "pipe"
	SourceHelper    = "helper"
)

// Config configures an Audioship instance. Zero fields take the defaults
// applied by SetDefaults.
type Config struct {
	// ServiceURL is the ingestion WebSocket endpoint.
	ServiceURL string

	// UserID and InputDataSource identify the session to the service.
	UserID          string
	InputDataSource string

	// TargetApp names the application whose audio is captured.
	TargetApp string

	// Mode is "mix", "tab" or "mic".
	Mode string

	// Channel picks the app channel kept from stereo input: "left" or "right".
	Channel string

	FlushInterval  time.Duration
	QueueCapacity  int
	MicBlockFrames int

	// AppSource selects the application capturer when none is injected:
	// SourcePulse, SourcePipe (reads AppPipe) or SourceHelper (runs AppHelper).
	AppSource string
	AppPipe   string
	AppHelper string

	// MicSource selects the microphone capturer when none is injected:
	// SourcePortAudio or SourcePipe (reads MicPipe).
	MicSource string
	MicPipe   string

	DialTimeout  time.Duration
	DialAttempts int
}

// DefaultServiceURL is the ingestion endpoint used when ServiceURL is empty.
const DefaultServiceURL = "ws://localhost:8000/v1/ingest/audio"

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if c.InputDataSource == "" {
		c.InputDataSource = "meet_transcript"
	}
	if c.TargetApp == "" {
		c.TargetApp = "com.google.Chrome"
	}
	if c.Mode == "" {
		c.Mode = domain.ModeMix.String()
	}
	if c.Channel == "" {
		c.Channel = domain.ChannelLeft.String()
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = domain.FlushInterval
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = domain.QueueCapacity
	}
	if c.MicBlockFrames <= 0 {
		c.MicBlockFrames = domain.MicBlockFrames
	}
	if c.AppSource == "" {
		c.AppSource = SourcePulse
	}
	if c.MicSource == "" {
		c.MicSource = SourcePortAudio
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = 1
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: UserID is required", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := domain.ParseChannel(c.Channel); err != nil {
		return err
	}
	return nil
}
