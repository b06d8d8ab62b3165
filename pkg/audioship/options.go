package audioship

import (
	"io"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Interfaces that can be injected for testing or custom transports.
type (
	// Dialer opens the session channel.
	Dialer = ports.Dialer
	// Conn is an open session channel.
	Conn = ports.Conn
	// Capturer produces raw audio blocks.
	Capturer = ports.Capturer
	// Metrics receives pipeline counters.
	Metrics = ports.Metrics
)

// Option configures optional behavior of Audioship.
type Option func(*options)

// options holds the optional configuration for an Audioship instance.
type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	dialer       Dialer
	appCapturer  Capturer
	micCapturer  Capturer
	pcmWriter    io.Writer
	metrics      Metrics
}

func defaultOptions() options {
	return options{
		logger:  log.NewNoopLogger(),
		metrics: ports.NoopMetrics{},
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for session events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Audioship starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithAppCapturer replaces the application capturer selected by
// Config.AppSource. It must deliver interleaved stereo.
func WithAppCapturer(c Capturer) Option {
	return func(o *options) {
		o.appCapturer = c
	}
}

// WithMicCapturer replaces the microphone capturer selected by
// Config.MicSource. It must deliver mono.
func WithMicCapturer(c Capturer) Option {
	return func(o *options) {
		o.micCapturer = c
	}
}

// WithPCMWriter copies every mixed block to w as raw f32le.
func WithPCMWriter(w io.Writer) Option {
	return func(o *options) {
		o.pcmWriter = w
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
