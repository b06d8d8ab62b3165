package domain

import "errors"

// Domain errors represent error conditions in the audioship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("audioship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("audioship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("audioship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("audioship: invalid configuration")

	// ErrSourceUnavailable is returned when the targeted application or
	// capture device cannot be found at start.
	ErrSourceUnavailable = errors.New("audioship: audio source unavailable")

	// ErrCaptureStart is returned when a capture stream fails to start.
	ErrCaptureStart = errors.New("audioship: capture start failed")

	// ErrChannelClosed is returned when sending on a session channel that is
	// no longer open.
	ErrChannelClosed = errors.New("audioship: channel closed")

	// ErrMalformedAck is returned when the init acknowledgment cannot be
	// used to open a session.
	ErrMalformedAck = errors.New("audioship: malformed acknowledgment")
)
