package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
)

// Defaults for the ingestion endpoint and session identity.
const (
	DefaultServiceURL      = "ws://localhost:8000/v1/ingest/audio"
	DefaultInputDataSource = "meet_transcript"
	DefaultTargetApp       = "com.google.Chrome"
)

// Capture backends selectable with app-source and mic-source.
const (
	SourcePulse     = "pulse"
	SourcePortAudio = "portaudio"
	SourcePipe      = "pipe"
	SourceHelper    = "helper"
	SourceNone      = "none"
)

// Config holds CLI configuration for audioship.
type Config struct {
	ServiceURL      string
	UserID          string
	InputDataSource string
	TargetApp       string

	Mode    string
	Channel string

	FlushInterval  time.Duration
	QueueCapacity  int
	MicBlockFrames int

	AppSource string
	AppPipe   string
	AppHelper string
	MicSource string
	MicPipe   string

	PCMOut      string
	MetricsAddr string

	LogLevel  string
	LogFormat string

	DialTimeout  time.Duration
	DialAttempts int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServiceURL:      DefaultServiceURL,
		InputDataSource: DefaultInputDataSource,
		TargetApp:       DefaultTargetApp,
		Mode:            domain.ModeMix.String(),
		Channel:         domain.ChannelLeft.String(),
		FlushInterval:   domain.FlushInterval,
		QueueCapacity:   domain.QueueCapacity,
		MicBlockFrames:  domain.MicBlockFrames,
		AppSource:       SourcePulse,
		MicSource:       SourcePortAudio,
		LogLevel:        "info",
		LogFormat:       "console",
		DialTimeout:     10 * time.Second,
		DialAttempts:    3,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user-id is required", domain.ErrInvalidConfig)
	}
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if !strings.HasPrefix(c.ServiceURL, "ws://") && !strings.HasPrefix(c.ServiceURL, "wss://") {
		return fmt.Errorf("%w: service-url must be ws:// or wss://, got %q", domain.ErrInvalidConfig, c.ServiceURL)
	}
	if c.InputDataSource == "" {
		c.InputDataSource = DefaultInputDataSource
	}

	mode, err := domain.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	c.Mode = mode.String()
	ch, err := domain.ParseChannel(c.Channel)
	if err != nil {
		return err
	}
	c.Channel = ch.String()

	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", domain.ErrInvalidConfig)
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = domain.QueueCapacity
	}
	if c.MicBlockFrames <= 0 {
		c.MicBlockFrames = domain.MicBlockFrames
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = 1
	}

	if mode.Accepts(domain.SourceApp) {
		switch c.AppSource {
		case SourcePulse:
			if c.TargetApp == "" {
				return fmt.Errorf("%w: target-app is required for pulse capture", domain.ErrInvalidConfig)
			}
		case SourcePipe:
			if c.AppPipe == "" {
				return fmt.Errorf("%w: app-pipe is required when app-source is pipe", domain.ErrInvalidConfig)
			}
		case SourceHelper:
			if c.AppHelper == "" {
				return fmt.Errorf("%w: app-helper is required when app-source is helper", domain.ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown app-source %q", domain.ErrInvalidConfig, c.AppSource)
		}
	}
	if mode.Accepts(domain.SourceMic) {
		switch c.MicSource {
		case SourcePortAudio:
		case SourcePipe:
			if c.MicPipe == "" {
				return fmt.Errorf("%w: mic-pipe is required when mic-source is pipe", domain.ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown mic-source %q", domain.ErrInvalidConfig, c.MicSource)
		}
	}
	if c.AppPipe == "-" && c.MicPipe == "-" {
		return fmt.Errorf("%w: app-pipe and mic-pipe cannot both read stdin", domain.ErrInvalidConfig)
	}
	if c.PCMOut != "" && c.PCMOut != "-" {
		return fmt.Errorf("%w: pcm-out only supports \"-\" (stdout)", domain.ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "", "console":
		c.LogFormat = "console"
	case "json":
	default:
		return fmt.Errorf("%w: unknown log-format %q", domain.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
