package audioship

import "github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"

// Errors returned by Audioship, for use with errors.Is.
var (
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrCaptureStart      = domain.ErrCaptureStart
	ErrChannelClosed     = domain.ErrChannelClosed
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
)
