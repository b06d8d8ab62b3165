package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/queue"
)

// SessionConfig holds the parameters of a SessionController.
type SessionConfig struct {
	Identity      protocol.Identity
	Mode          domain.Mode
	Channel       domain.Channel
	FlushInterval time.Duration
	QueueCapacity int

	// DialAttempts is the number of connection attempts made by Start.
	DialAttempts   int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

func (c *SessionConfig) setDefaults() {
	if c.FlushInterval <= 0 {
		c.FlushInterval = domain.FlushInterval
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = domain.QueueCapacity
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = 1
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
}

// SessionController owns the session state machine. It opens the channel,
// waits for the init acknowledgment, runs the capture pipeline while
// streaming and tears everything down on Stop.
type SessionController struct {
	cfg       SessionConfig
	dialer    ports.Dialer
	appCap    ports.Capturer
	micCap    ports.Capturer
	logger    ports.Logger
	metrics   ports.Metrics
	emitter   EventEmitter
	lifecycle *Lifecycle

	appQ    *queue.SourceQueue
	micQ    *queue.SourceQueue
	mixer   *SyncMixer
	chunker *Chunker
	appSrc  *AppAudioSource
	micSrc  *MicAudioSource

	// mu serializes Start, Stop and the ack handler.
	mu        sync.Mutex
	gen       uint64
	conn      ports.Conn
	rawDataID string
	started   []ports.Capturer

	errCh chan error
}

// NewSessionController wires the pipeline. appCap is required unless the
// mode is mic-only and micCap is required unless the mode is tab-only.
// Extra sinks receive every mixed block alongside the chunker.
func NewSessionController(
	cfg SessionConfig,
	dialer ports.Dialer,
	appCap, micCap ports.Capturer,
	logger ports.Logger,
	metrics ports.Metrics,
	emitter EventEmitter,
	sinks ...BlockSink,
) (*SessionController, error) {
	cfg.setDefaults()
	if dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", domain.ErrInvalidConfig)
	}
	if appCap == nil && cfg.Mode.Accepts(domain.SourceApp) {
		return nil, fmt.Errorf("%w: mode %s needs an application capturer", domain.ErrInvalidConfig, cfg.Mode)
	}
	if micCap == nil && cfg.Mode.Accepts(domain.SourceMic) {
		return nil, fmt.Errorf("%w: mode %s needs a microphone capturer", domain.ErrInvalidConfig, cfg.Mode)
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if emitter == nil {
		emitter = noopEmitter{}
	}

	s := &SessionController{
		cfg:     cfg,
		dialer:  dialer,
		appCap:  appCap,
		micCap:  micCap,
		logger:  logger,
		metrics: metrics,
		emitter: emitter,
		appQ:    queue.New(cfg.QueueCapacity),
		micQ:    queue.New(cfg.QueueCapacity),
		errCh:   make(chan error, 1),
	}
	s.lifecycle = NewLifecycle(logger, stateFanout{emitter: emitter, metrics: metrics})
	s.chunker = NewChunker(cfg.Identity, logger, metrics, emitter)

	all := append([]BlockSink{s.chunker.Append}, sinks...)
	s.mixer = NewSyncMixer(cfg.Mode, s.appQ, s.micQ, logger, metrics, all...)
	s.appSrc = NewAppAudioSource(cfg.Mode, cfg.Channel, s.appQ, s.mixer.Trigger, metrics)
	s.micSrc = NewMicAudioSource(cfg.Mode, s.micQ, s.mixer.Trigger, metrics)
	return s, nil
}

// State returns the current session state.
func (s *SessionController) State() State {
	return s.lifecycle.State()
}

// RawDataID returns the id of the open session, or "" outside Streaming.
func (s *SessionController) RawDataID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawDataID
}

// Errors delivers fatal pipeline errors raised after Start returned, such
// as a capture stream that fails to start once the session is acknowledged.
func (s *SessionController) Errors() <-chan error {
	return s.errCh
}

// Start opens a session. Start while not Idle is a no-op.
//
// The sources are probed before anything is dialed, so a missing target
// application fails Start synchronously and leaves the controller Idle.
// Start returns once init has been sent; the session becomes Streaming when
// the acknowledgment arrives.
func (s *SessionController) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		s.logger.Debug("start ignored", ports.String("state", s.lifecycle.State().String()))
		return nil
	}

	if err := s.probe(ctx); err != nil {
		return err
	}

	if err := s.lifecycle.TransitionTo(StateOpening, "start requested"); err != nil {
		return err
	}

	conn, err := s.dial(ctx)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateIdle, "dial failed")
		return err
	}

	initMsg, err := protocol.EncodeInit(s.cfg.Identity)
	if err == nil {
		err = conn.WriteMessage(ctx, initMsg)
	}
	if err != nil {
		_ = conn.Close()
		_ = s.lifecycle.TransitionTo(StateIdle, "init failed")
		return fmt.Errorf("send init: %w", err)
	}

	s.gen++
	s.conn = conn
	go s.readLoop(conn, s.gen)

	s.logger.Info("init sent, waiting for acknowledgment",
		ports.String("user_id", s.cfg.Identity.UserID),
		ports.String("input_data_source", s.cfg.Identity.InputDataSource),
	)
	return nil
}

func (s *SessionController) probe(ctx context.Context) error {
	for _, c := range []struct {
		src      domain.Source
		capturer ports.Capturer
	}{
		{domain.SourceApp, s.appCap},
		{domain.SourceMic, s.micCap},
	} {
		if !s.cfg.Mode.Accepts(c.src) {
			continue
		}
		p, ok := c.capturer.(ports.Prober)
		if !ok {
			continue
		}
		if err := p.Probe(ctx); err != nil {
			s.logger.Error("audio source unavailable",
				ports.String("source", c.src.String()),
				ports.Err(err),
			)
			return err
		}
	}
	return nil
}

func (s *SessionController) dial(ctx context.Context) (ports.Conn, error) {
	b := newBackoff(s.cfg.BackoffInitial, s.cfg.BackoffMax)
	var lastErr error
	for attempt := 1; attempt <= s.cfg.DialAttempts; attempt++ {
		conn, err := s.dialer.Dial(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		s.logger.Warn("dial failed",
			ports.Err(err),
			ports.Int("attempt", attempt),
			ports.Int("max_attempts", s.cfg.DialAttempts),
		)
		if attempt == s.cfg.DialAttempts {
			break
		}
		if err := b.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("dial ingestion service: %w", lastErr)
}

// readLoop consumes inbound messages for one connection. While Opening it
// waits for a usable acknowledgment; afterwards inbound messages are only
// logged. A read error marks the channel closed.
func (s *SessionController) readLoop(conn ports.Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.channelLost(gen, err)
			return
		}

		if s.lifecycle.State() != StateOpening {
			s.logger.Debug("inbound message ignored", ports.Int("bytes", len(data)))
			continue
		}

		id, err := protocol.ParseAck(data)
		if err != nil {
			s.logger.Warn("unusable acknowledgment, still waiting", ports.Err(err))
			continue
		}
		s.onAck(gen, id)
	}
}

func (s *SessionController) channelLost(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.conn == nil {
		return
	}

	switch s.lifecycle.State() {
	case StateOpening:
		s.logger.Warn("channel closed before acknowledgment", ports.Err(err))
		_ = s.conn.Close()
		s.conn = nil
		_ = s.lifecycle.TransitionTo(StateIdle, "channel closed while opening")
		s.reportLocked(fmt.Errorf("%w: before acknowledgment: %v", domain.ErrChannelClosed, err))
	case StateStreaming:
		s.logger.Warn("channel closed, chunks will be skipped", ports.Err(err))
		s.chunker.MarkClosed()
	}
}

func (s *SessionController) onAck(gen uint64, rawDataID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.lifecycle.State() != StateOpening {
		return
	}

	s.rawDataID = rawDataID
	s.appQ.Clear()
	s.micQ.Clear()
	s.chunker.Begin(s.conn, rawDataID)

	ctx, cancel := context.WithCancel(context.Background())
	s.lifecycle.SetCancel(cancel)
	s.lifecycle.Go(func() { s.mixer.Run(ctx) })

	if err := s.startCapture(ctx); err != nil {
		s.logger.Error("capture start failed", ports.Err(err))
		s.abortLocked(err)
		return
	}

	s.lifecycle.Go(func() { s.chunker.Run(ctx, s.cfg.FlushInterval) })

	_ = s.lifecycle.TransitionTo(StateStreaming, "acknowledged")
	s.logger.Info("streaming", ports.String("raw_data_id", rawDataID))
}

func (s *SessionController) startCapture(ctx context.Context) error {
	s.started = s.started[:0]
	if s.cfg.Mode.Accepts(domain.SourceApp) {
		if err := s.appCap.Start(ctx, s.appSrc.Feed); err != nil {
			return fmt.Errorf("%w: app: %v", domain.ErrCaptureStart, err)
		}
		s.started = append(s.started, s.appCap)
	}
	if s.cfg.Mode.Accepts(domain.SourceMic) {
		if err := s.micCap.Start(ctx, s.micSrc.Feed); err != nil {
			return fmt.Errorf("%w: mic: %v", domain.ErrCaptureStart, err)
		}
		s.started = append(s.started, s.micCap)
	}
	return nil
}

// abortLocked tears down a session whose pipeline failed to start and
// reports err as fatal.
func (s *SessionController) abortLocked(err error) {
	s.stopCaptureLocked()
	s.chunker.End()
	s.lifecycle.Cancel()
	s.sendCloseLocked()
	_ = s.conn.Close()
	s.conn = nil
	s.rawDataID = ""
	_ = s.lifecycle.WaitWithTimeout(ShutdownTimeout)
	_ = s.lifecycle.TransitionTo(StateIdle, "capture start failed")
	s.reportLocked(err)
}

func (s *SessionController) reportLocked(err error) {
	select {
	case s.errCh <- err:
	default:
		s.logger.Warn("fatal error dropped, previous one unread", ports.Err(err))
	}
}

// Stop ends the session. Stop while Idle is a no-op.
//
// Producers stop first. The chunker is detached before the flush timer is
// canceled, so pending audio is dropped without a final flush; then
// close_connection is sent and the channel closed.
// Stop while Opening abandons the handshake.
func (s *SessionController) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.lifecycle.State() {
	case StateIdle, StateClosing:
		s.logger.Debug("stop ignored", ports.String("state", s.lifecycle.State().String()))
		return nil
	case StateOpening:
		s.gen++
		if s.conn != nil {
			_ = s.conn.Close()
			s.conn = nil
		}
		return s.lifecycle.TransitionTo(StateIdle, "stopped while opening")
	}

	if err := s.lifecycle.TransitionTo(StateClosing, "stop requested"); err != nil {
		return err
	}

	s.stopCaptureLocked()
	s.chunker.End()
	s.lifecycle.Cancel()
	s.appQ.Clear()
	s.micQ.Clear()

	s.sendCloseLocked()
	s.gen++
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("channel close", ports.Err(err))
	}
	s.conn = nil
	s.rawDataID = ""

	waitErr := s.lifecycle.WaitWithTimeout(ShutdownTimeout)
	if err := s.lifecycle.TransitionTo(StateIdle, "session closed"); err != nil {
		return err
	}
	return waitErr
}

func (s *SessionController) stopCaptureLocked() {
	for i := len(s.started) - 1; i >= 0; i-- {
		if err := s.started[i].Stop(); err != nil {
			s.logger.Warn("capture stop failed", ports.Err(err))
		}
	}
	s.started = s.started[:0]
}

// sendCloseLocked sends close_connection for the current session. A failed
// send only matters to the log: the channel is closed right after.
func (s *SessionController) sendCloseLocked() {
	if s.conn == nil || s.rawDataID == "" {
		return
	}
	msg, err := protocol.EncodeClose(s.cfg.Identity, s.rawDataID)
	if err != nil {
		s.logger.Warn("encode close_connection", ports.Err(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.conn.WriteMessage(ctx, msg); err != nil && !errors.Is(err, domain.ErrChannelClosed) {
		s.logger.Warn("close_connection not sent", ports.Err(err))
	}
}

// stateFanout forwards state changes to the event emitter and the
// session_state gauge.
type stateFanout struct {
	emitter EventEmitter
	metrics ports.Metrics
}

func (f stateFanout) OnStateChange(previous, current State, reason string) {
	f.metrics.SessionState(current.String())
	f.emitter.OnStateChange(previous, current, reason)
}
