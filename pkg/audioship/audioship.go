package audioship

import (
	"context"
	"fmt"
	"sync"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/adapters/capture"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/adapters/pcmout"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/adapters/ws"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/app"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/log"
)

// Audioship captures application and microphone audio and streams it to
// the ingestion service. Use New() to create an instance, then Start() to
// open a session.
type Audioship struct {
	config  Config
	logger  Logger
	session *app.SessionController
	pcm     *pcmout.Writer
	plugins []Plugin

	mu        sync.Mutex
	pluginsUp bool
}

// New creates an Audioship in StateIdle.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Audioship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := domain.ParseMode(cfg.Mode)
	channel, _ := domain.ParseChannel(cfg.Channel)

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	dialer := o.dialer
	if dialer == nil {
		dialer = ws.NewDialer(cfg.ServiceURL, cfg.DialTimeout, log.With(logger, log.String("component", "ws")))
	}

	appCap, micCap := o.appCapturer, o.micCapturer
	var err error
	if appCap == nil && mode.Accepts(domain.SourceApp) {
		if appCap, err = newAppCapturer(cfg, log.With(logger, log.String("source", "app"))); err != nil {
			return nil, err
		}
	}
	if micCap == nil && mode.Accepts(domain.SourceMic) {
		if micCap, err = newMicCapturer(cfg, log.With(logger, log.String("source", "mic"))); err != nil {
			return nil, err
		}
	}

	var (
		sinks []app.BlockSink
		pcm   *pcmout.Writer
	)
	if o.pcmWriter != nil {
		pcm = pcmout.New(o.pcmWriter, logger)
		sinks = append(sinks, pcm.Write)
	}

	session, err := app.NewSessionController(app.SessionConfig{
		Identity: protocol.Identity{
			InputDataSource: cfg.InputDataSource,
			UserID:          cfg.UserID,
		},
		Mode:          mode,
		Channel:       channel,
		FlushInterval: cfg.FlushInterval,
		QueueCapacity: cfg.QueueCapacity,
		DialAttempts:  cfg.DialAttempts,
	}, dialer, appCap, micCap, logger, o.metrics, emitter, sinks...)
	if err != nil {
		return nil, err
	}

	return &Audioship{
		config:  cfg,
		logger:  logger,
		session: session,
		pcm:     pcm,
		plugins: o.plugins,
	}, nil
}

func newAppCapturer(cfg Config, logger ports.Logger) (ports.Capturer, error) {
	switch cfg.AppSource {
	case SourcePulse:
		return capture.NewPulseCapturer(cfg.TargetApp, cfg.MicBlockFrames, logger), nil
	case SourcePipe:
		return capture.NewPipeCapturer(cfg.AppPipe, 2, cfg.MicBlockFrames, logger), nil
	case SourceHelper:
		return capture.NewCommandCapturer(cfg.AppHelper, []string{cfg.TargetApp}, 2, cfg.MicBlockFrames, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown app source %q", domain.ErrInvalidConfig, cfg.AppSource)
	}
}

func newMicCapturer(cfg Config, logger ports.Logger) (ports.Capturer, error) {
	switch cfg.MicSource {
	case SourcePortAudio:
		return capture.NewPortAudioCapturer(cfg.MicBlockFrames, logger), nil
	case SourcePipe:
		return capture.NewPipeCapturer(cfg.MicPipe, 1, cfg.MicBlockFrames, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown mic source %q", domain.ErrInvalidConfig, cfg.MicSource)
	}
}

// Start initializes plugins and opens a session. Start returns once init
// has been sent; the instance reaches StateStreaming when the service
// acknowledges it. Start while a session is open is a no-op.
func (a *Audioship) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.State() != app.StateIdle {
		return nil
	}

	if err := a.initPluginsLocked(ctx); err != nil {
		return err
	}

	if err := a.session.Start(ctx); err != nil {
		a.shutdownPluginsLocked()
		return err
	}
	return nil
}

// Stop ends the session and shuts plugins down. Pending audio that has not
// been flushed is dropped. Stop while Idle only shuts plugins down.
func (a *Audioship) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.session.Stop()
	a.shutdownPluginsLocked()
	return err
}

// State returns the current session state.
// Safe to call concurrently from any goroutine.
func (a *Audioship) State() State {
	return convertState(a.session.State())
}

// Err delivers fatal errors raised after Start returned, such as a capture
// stream that could not be started once the session was acknowledged or
// a channel lost before the acknowledgment. The instance is Idle by the
// time an error is delivered.
func (a *Audioship) Err() <-chan error {
	return a.session.Errors()
}

// RawDataID returns the id assigned by the service to the open session.
func (a *Audioship) RawDataID() string {
	return a.session.RawDataID()
}

func (a *Audioship) initPluginsLocked(ctx context.Context) error {
	if a.pluginsUp {
		return nil
	}
	pluginCfg := PluginConfig{
		ServiceURL:      a.config.ServiceURL,
		UserID:          a.config.UserID,
		InputDataSource: a.config.InputDataSource,
		TargetApp:       a.config.TargetApp,
		Mode:            a.config.Mode,
		Logger:          a.logger,
	}
	for i, p := range a.plugins {
		if err := p.Initialize(ctx, pluginCfg); err != nil {
			a.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			a.shutdownPlugins(a.plugins[:i])
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		a.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}
	a.pluginsUp = true
	return nil
}

func (a *Audioship) shutdownPluginsLocked() {
	if !a.pluginsUp {
		return
	}
	a.shutdownPlugins(a.plugins)
	a.pluginsUp = false
}

// shutdownPlugins shuts plugins down in reverse order. A failing plugin
// does not prevent the others from shutting down.
func (a *Audioship) shutdownPlugins(plugins []Plugin) {
	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			a.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			a.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}
