package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
)

// StdinPath selects standard input as the capture source.
const StdinPath = "-"

// stopWait bounds how long Stop waits for a blocked read to return.
const stopWait = time.Second

// ReaderCapturer decodes interleaved f32le samples from a stream.
// Samples are delivered in blocks of frames*channels values; a trailing
// partial frame at end of stream is discarded.
type ReaderCapturer struct {
	open     func() (io.ReadCloser, error)
	name     string
	path     string
	channels int
	frames   int
	logger   ports.Logger

	mu     sync.Mutex
	rc     io.ReadCloser
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReaderCapturer reads from r. The reader is consumed once; a second
// Start after Stop reads whatever remains.
func NewReaderCapturer(r io.Reader, channels, frames int, logger ports.Logger) *ReaderCapturer {
	return newReaderCapturer("reader", "", func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}, channels, frames, logger)
}

// NewPipeCapturer opens path (a FIFO or regular file) on every Start.
// StdinPath reads from standard input.
func NewPipeCapturer(path string, channels, frames int, logger ports.Logger) *ReaderCapturer {
	name := path
	if path == StdinPath {
		name, path = "stdin", ""
	}
	return newReaderCapturer(name, path, func() (io.ReadCloser, error) {
		if path == "" {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(path)
	}, channels, frames, logger)
}

func newReaderCapturer(name, path string, open func() (io.ReadCloser, error), channels, frames int, logger ports.Logger) *ReaderCapturer {
	if channels <= 0 {
		channels = 1
	}
	if frames <= 0 {
		frames = domain.MicBlockFrames
	}
	return &ReaderCapturer{
		open:     open,
		name:     name,
		path:     path,
		channels: channels,
		frames:   frames,
		logger:   logger,
	}
}

// Probe implements ports.Prober. Named paths must exist.
func (r *ReaderCapturer) Probe(ctx context.Context) error {
	if r.path == "" {
		return nil
	}
	if _, err := os.Stat(r.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// Start implements ports.Capturer.
func (r *ReaderCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return nil
	}

	rc, err := r.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", r.name, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.rc, r.cancel, r.done = rc, cancel, make(chan struct{})
	go r.pump(runCtx, rc, deliver, r.done)
	return nil
}

// Stop implements ports.Capturer. It closes the source and waits briefly
// for the reader goroutine; reads blocked on stdin cannot be interrupted.
func (r *ReaderCapturer) Stop() error {
	r.mu.Lock()
	rc, cancel, done := r.rc, r.cancel, r.done
	r.rc, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	err := rc.Close()
	select {
	case <-done:
	case <-time.After(stopWait):
		r.logger.Warn("capture reader still blocked after stop", ports.String("source", r.name))
	}
	return err
}

func (r *ReaderCapturer) pump(ctx context.Context, src io.Reader, deliver func([]float32), done chan struct{}) {
	defer close(done)

	frameBytes := r.channels * domain.BytesPerSample
	buf := make([]byte, r.frames*frameBytes)
	for {
		n, err := io.ReadFull(src, buf)
		if ctx.Err() != nil {
			return
		}
		n -= n % frameBytes
		if n > 0 {
			samples, decErr := protocol.DecodeF32LE(buf[:n])
			if decErr == nil {
				deliver(samples)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				r.logger.Warn("capture read failed", ports.String("source", r.name), ports.Err(err))
			} else {
				r.logger.Info("capture source ended", ports.String("source", r.name))
			}
			return
		}
	}
}

var (
	_ ports.Capturer = (*ReaderCapturer)(nil)
	_ ports.Prober   = (*ReaderCapturer)(nil)
)
