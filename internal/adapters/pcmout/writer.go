// Package pcmout taps mixed blocks to a byte stream as raw f32le.
package pcmout

import (
	"bufio"
	"io"
	"sync"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
)

// Writer writes every block it receives to an io.Writer. The first write
// error is logged and the writer disables itself; streaming continues.
type Writer struct {
	logger ports.Logger

	mu       sync.Mutex
	out      *bufio.Writer
	scratch  []byte
	disabled bool
	written  int64
}

// New wraps out.
func New(out io.Writer, logger ports.Logger) *Writer {
	return &Writer{
		logger: logger,
		out:    bufio.NewWriterSize(out, domain.MicBlockFrames*domain.BytesPerSample*8),
	}
}

// Write encodes block and flushes it. Its signature matches app.BlockSink.
func (w *Writer) Write(block domain.FrameBlock) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disabled || len(block) == 0 {
		return
	}

	w.scratch = protocol.AppendF32LE(w.scratch[:0], block)
	if _, err := w.out.Write(w.scratch); err != nil {
		w.disable(err)
		return
	}
	if err := w.out.Flush(); err != nil {
		w.disable(err)
		return
	}
	w.written += int64(len(w.scratch))
}

// Written returns the number of bytes delivered so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Disabled reports whether a write error has stopped the tap.
func (w *Writer) Disabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disabled
}

func (w *Writer) disable(err error) {
	w.disabled = true
	w.logger.Warn("pcm output disabled", ports.Err(err))
}
