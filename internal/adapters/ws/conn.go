// Package ws implements the session channel over gorilla/websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 512 * 1024
	handshakeTimeout = 10 * time.Second
)

// RequestIDHeader carries a per-connection id for correlating server logs.
const RequestIDHeader = "X-Request-Id"

// Dialer opens websocket connections to one URL.
type Dialer struct {
	url    string
	header http.Header
	dialer websocket.Dialer
	logger ports.Logger
}

// NewDialer creates a Dialer for url. A zero timeout uses the default
// handshake timeout.
func NewDialer(url string, timeout time.Duration, logger ports.Logger) *Dialer {
	if timeout <= 0 {
		timeout = handshakeTimeout
	}
	return &Dialer{
		url:    url,
		header: http.Header{},
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: logger,
	}
}

// SetHeader adds a header sent with every handshake.
func (d *Dialer) SetHeader(key, value string) {
	d.header.Set(key, value)
}

// Dial implements ports.Dialer.
func (d *Dialer) Dial(ctx context.Context) (ports.Conn, error) {
	h := d.header.Clone()
	id := uuid.NewString()
	h.Set(RequestIDHeader, id)

	c, resp, err := d.dialer.DialContext(ctx, d.url, h)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", d.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", d.url, err)
	}

	d.logger.Info("channel connected",
		ports.String("url", d.url),
		ports.String("request_id", id),
	)
	return newConn(c, id, d.logger), nil
}

// Conn is a websocket connection satisfying ports.Conn.
type Conn struct {
	ws     *websocket.Conn
	id     string
	logger ports.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(c *websocket.Conn, id string, logger ports.Logger) *Conn {
	conn := &Conn{
		ws:     c,
		id:     id,
		logger: logger,
		done:   make(chan struct{}),
	}
	c.SetReadLimit(maxMessageSize)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})
	go conn.pingLoop()
	return conn
}

// ID returns the request id sent during the handshake.
func (c *Conn) ID() string {
	return c.id
}

// WriteMessage sends data as one text frame. The write deadline is the
// earlier of ctx's deadline and the default write wait.
func (c *Conn) WriteMessage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return domain.ErrChannelClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ReadMessage returns the next text or binary message.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil, domain.ErrChannelClosed
			default:
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return nil, fmt.Errorf("%w: %v", domain.ErrChannelClosed, ce)
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal-closure frame and closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.done)
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		c.writeMu.Unlock()
		err = c.ws.Close()
		c.logger.Debug("channel closed", ports.String("request_id", c.id))
	})
	return err
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("ping failed", ports.Err(err))
				return
			}
		}
	}
}

var (
	_ ports.Dialer = (*Dialer)(nil)
	_ ports.Conn   = (*Conn)(nil)
)
