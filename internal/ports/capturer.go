package ports

import "context"

// Capturer produces raw float32 audio blocks from one source.
//
// Application capturers deliver interleaved stereo; microphone capturers
// deliver mono. Block sizes are whatever the underlying device produces.
type Capturer interface {
	// Start begins capture and calls deliver for every block until Stop is
	// called or ctx is canceled. deliver must not block and must not retain
	// the slice after returning.
	// Start returns once capture is running; a non-nil error means no block
	// will ever be delivered.
	Start(ctx context.Context, deliver func(block []float32)) error

	// Stop halts capture and releases the device. After Stop returns no
	// further calls to deliver are made. Stop on a stopped capturer is a no-op.
	Stop() error
}

// Prober is implemented by capturers that can check their source exists
// without starting capture.
type Prober interface {
	// Probe returns an error wrapping domain.ErrSourceUnavailable when the
	// source cannot be found.
	Probe(ctx context.Context) error
}
