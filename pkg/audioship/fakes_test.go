package audioship_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"
)

var errConnClosed = errors.New("fake conn closed")

// ackConn acknowledges init with a fixed raw_data_id and records writes.
type ackConn struct {
	mu      sync.Mutex
	written [][]byte
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newAckConn() *ackConn {
	return &ackConn{
		inbound: make(chan []byte, 4),
		closed:  make(chan struct{}),
	}
}

func (c *ackConn) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.mu.Lock()
	c.written = append(c.written, append([]byte(nil), data...))
	c.mu.Unlock()

	var env struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.EventType == "init" {
		c.inbound <- []byte(`{"status":"SUCCESS","raw_data_id":"rd-1"}`)
	}
	return nil
}

func (c *ackConn) ReadMessage() ([]byte, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *ackConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *ackConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, w := range c.written {
		var env struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(w, &env); err == nil {
			out = append(out, env.EventType)
		}
	}
	return out
}

type ackDialer struct {
	mu    sync.Mutex
	conns []*ackConn
	err   error
}

func (d *ackDialer) Dial(ctx context.Context) (audioship.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newAckConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *ackDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *ackDialer) last() *ackConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// stubCapturer holds the deliver callback so tests can push audio.
type stubCapturer struct {
	mu       sync.Mutex
	deliver  func([]float32)
	startErr error
	stops    int
}

func (c *stubCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.deliver = deliver
	return nil
}

func (c *stubCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliver = nil
	c.stops++
	return nil
}

func (c *stubCapturer) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *stubCapturer) push(samples []float32) bool {
	c.mu.Lock()
	deliver := c.deliver
	c.mu.Unlock()
	if deliver == nil {
		return false
	}
	deliver(samples)
	return true
}

func waitState(t *testing.T, a *audioship.Audioship, want audioship.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", a.State(), want)
}

func testConfig(mode string) audioship.Config {
	return audioship.Config{
		UserID:        "user-1",
		Mode:          mode,
		FlushInterval: time.Hour,
	}
}

func block(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func mustNew(t *testing.T, cfg audioship.Config, opts ...audioship.Option) *audioship.Audioship {
	t.Helper()
	a, err := audioship.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return a
}
