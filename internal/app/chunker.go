package app

import (
	"context"
	"sync"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
)

// Skip reasons reported to metrics when a tick sends nothing.
const (
	SkipEmpty  = "empty"
	SkipClosed = "closed"
)

// Chunker accumulates mixer output as f32le bytes and ships the
// accumulation as one audio_chunk per flush tick.
//
// Append is called from the mixer goroutine and Flush from the ticker
// goroutine; the accumulator and the session fields share one mutex, which
// is never held across a channel write.
type Chunker struct {
	identity protocol.Identity
	logger   ports.Logger
	metrics  ports.Metrics
	emitter  EventEmitter

	mu        sync.Mutex
	buf       []byte
	conn      ports.Conn
	rawDataID string
	index     int
	open      bool
	gen       uint64
}

// NewChunker creates a chunker. It drops everything appended until Begin
// is called.
func NewChunker(id protocol.Identity, logger ports.Logger, metrics ports.Metrics, emitter EventEmitter) *Chunker {
	return &Chunker{
		identity: id,
		logger:   logger,
		metrics:  metrics,
		emitter:  emitter,
	}
}

// Begin binds the chunker to a new session: the index restarts at 0 and
// any accumulated audio is dropped.
func (c *Chunker) Begin(conn ports.Conn, rawDataID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.conn = conn
	c.rawDataID = rawDataID
	c.index = 0
	c.buf = c.buf[:0]
	c.open = true
}

// End detaches the chunker from its session and drops pending audio. A send
// already in flight does not advance the next session's index.
func (c *Chunker) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.conn = nil
	c.rawDataID = ""
	c.index = 0
	c.buf = nil
	c.open = false
}

// MarkClosed records that the channel went away. Pending audio is dropped
// and later ticks skip silently until the next Begin.
func (c *Chunker) MarkClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.buf = nil
}

// Append adds a mixed block to the accumulator. It is a no-op unless a
// session is open.
func (c *Chunker) Append(b domain.FrameBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return
	}
	c.buf = protocol.AppendF32LE(c.buf, b)
}

// Pending returns the number of accumulated bytes.
func (c *Chunker) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Index returns the index the next chunk will carry.
func (c *Chunker) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Flush sends the accumulated audio as one chunk. An empty accumulator or a
// closed channel makes the tick a silent no-op. A failed send is logged and
// the audio is dropped; the index advances only on success.
func (c *Chunker) Flush(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		c.metrics.ChunkSkipped(SkipClosed)
		return nil
	}
	if len(c.buf) == 0 {
		c.mu.Unlock()
		c.metrics.ChunkSkipped(SkipEmpty)
		return nil
	}
	pcm := c.buf
	c.buf = make([]byte, 0, cap(pcm))
	conn, rawDataID, index, gen := c.conn, c.rawDataID, c.index, c.gen
	c.mu.Unlock()

	msg, err := protocol.EncodeAudioChunk(c.identity, rawDataID, index, pcm)
	if err != nil {
		return c.sendFailed(err, index, len(pcm))
	}

	start := time.Now()
	if err := conn.WriteMessage(ctx, msg); err != nil {
		return c.sendFailed(err, index, len(pcm))
	}
	took := time.Since(start)

	c.mu.Lock()
	if c.gen == gen {
		c.index++
	}
	c.mu.Unlock()

	c.metrics.ChunkSent(len(pcm), took)
	c.emitter.OnChunkSent(index, len(pcm), took)
	c.logger.Debug("chunk sent",
		ports.Int("index", index),
		ports.Int("bytes", len(pcm)),
		ports.Duration("took", took),
	)
	return nil
}

func (c *Chunker) sendFailed(err error, index, n int) error {
	c.logger.Error("send failed",
		ports.Err(err),
		ports.Int("index", index),
		ports.Int("bytes", n),
	)
	c.metrics.ChunkSendFailed()
	c.emitter.OnChunkError(err, index, n)
	return err
}

// Run flushes every interval until ctx is done. Errors are already logged
// by Flush; the loop never stops on them.
func (c *Chunker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Flush(ctx)
		}
	}
}
