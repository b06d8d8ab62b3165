package audioship

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pkg "github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"
)

// loopConn acknowledges init and blocks reads until closed.
type loopConn struct {
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once
}

func (c *loopConn) WriteMessage(ctx context.Context, data []byte) error {
	var env struct {
		EventType string `json:"event_type"`
	}
	if json.Unmarshal(data, &env) == nil && env.EventType == "init" {
		c.inbound <- []byte(`{"status":"SUCCESS","raw_data_id":"run-1"}`)
	}
	return nil
}

func (c *loopConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.inbound:
		return m, nil
	case <-c.closed:
		return nil, errors.New("closed")
	}
}

func (c *loopConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type loopDialer struct{}

func (loopDialer) Dial(ctx context.Context) (pkg.Conn, error) {
	return &loopConn{inbound: make(chan []byte, 1), closed: make(chan struct{})}, nil
}

type failingCapturer struct{}

func (failingCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	return errors.New("no device")
}
func (failingCapturer) Stop() error { return nil }

type idleCapturer struct{}

func (idleCapturer) Start(ctx context.Context, deliver func([]float32)) error { return nil }
func (idleCapturer) Stop() error                                              { return nil }

func TestRun_InvalidConfig(t *testing.T) {
	err := Run(context.Background(), Config{})
	if !errors.Is(err, pkg.ErrInvalidConfig) {
		t.Fatalf("Run() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRun_ReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, Config{UserID: "u", Mode: "tab"},
		pkg.WithDialer(loopDialer{}),
		pkg.WithAppCapturer(idleCapturer{}),
	)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
}

func TestRun_ReturnsSessionFailure(t *testing.T) {
	err := Run(context.Background(), Config{UserID: "u", Mode: "mic"},
		pkg.WithDialer(loopDialer{}),
		pkg.WithMicCapturer(failingCapturer{}),
	)
	if !errors.Is(err, pkg.ErrCaptureStart) {
		t.Fatalf("Run() error = %v, want ErrCaptureStart", err)
	}
}
