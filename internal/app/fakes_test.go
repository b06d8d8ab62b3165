package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
)

// fakeConn records outbound messages and serves inbound ones from a channel.
type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	closed   bool

	inbound   chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 8),
		closeCh: make(chan struct{}),
	}
}

func (c *fakeConn) WriteMessage(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.inbound:
		return m, nil
	case <-c.closeCh:
		return nil, domain.ErrChannelClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)
	})
	return nil
}

func (c *fakeConn) setWriteErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// messages returns outbound messages of the given event type.
func (c *fakeConn) messages(eventType string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]byte
	for _, m := range c.written {
		if et, err := protocol.EventType(m); err == nil && et == eventType {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) ack(rawDataID string) {
	c.inbound <- []byte(`{"status":"SUCCESS","raw_data_id":"` + rawDataID + `"}`)
}

// fakeDialer hands out fakeConns and counts calls.
type fakeDialer struct {
	mu    sync.Mutex
	dials int
	fails int // number of leading calls that fail
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context) (ports.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.fails {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// fakeCapturer keeps the deliver callback so tests can push blocks.
type fakeCapturer struct {
	mu       sync.Mutex
	deliver  func([]float32)
	startErr error
	probeErr error
	starts   int
	stops    int
}

func (c *fakeCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.deliver = deliver
	return nil
}

func (c *fakeCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.deliver = nil
	return nil
}

func (c *fakeCapturer) Probe(ctx context.Context) error {
	return c.probeErr
}

func (c *fakeCapturer) push(block []float32) bool {
	c.mu.Lock()
	d := c.deliver
	c.mu.Unlock()
	if d == nil {
		return false
	}
	d(block)
	return true
}

func (c *fakeCapturer) counts() (starts, stops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops
}

// countingMetrics records the metric calls tests care about.
type countingMetrics struct {
	ports.NoopMetrics
	mu        sync.Mutex
	evicted   map[string]int
	discarded map[string]int
	merged    map[string]int
	skipped   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		evicted:   map[string]int{},
		discarded: map[string]int{},
		merged:    map[string]int{},
		skipped:   map[string]int{},
	}
}

func (m *countingMetrics) BlockEvicted(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicted[s]++
}

func (m *countingMetrics) BlockDiscarded(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded[s]++
}

func (m *countingMetrics) BlockMerged(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merged[k]++
}

func (m *countingMetrics) ChunkSkipped(r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped[r]++
}

func (m *countingMetrics) get(table map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return table[key]
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func ramp(n int, start float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)/1024
	}
	return out
}
