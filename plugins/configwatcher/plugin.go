// Package configwatcher reloads runtime settings when the audioship config
// file changes. Only log_level is applied live; other keys take effect on
// the next process start.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/cliconfig"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/log"
)

// Plugin watches one config file.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration
	onLogLevel    func(level string)

	logger   audioship.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	level    string
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch. The plugin is a no-op when empty.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// OnLogLevel is called with the new log_level after a change.
	// Default: sets the zerolog global level.
	OnLogLevel func(level string)
}

// DefaultConfig returns a Config watching the default config path.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.OnLogLevel == nil {
		cfg.OnLogLevel = func(level string) {
			zerolog.SetGlobalLevel(cliconfig.ParseLevel(level))
		}
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		onLogLevel:    cfg.OnLogLevel,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize records the current log level and starts watching.
func (p *Plugin) Initialize(ctx context.Context, cfg audioship.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.mu.Unlock()

	if p.path == "" || !cliconfig.FileExists(p.path) {
		p.logger.Warn("config watcher disabled: no config file", log.String("path", p.path))
		return nil
	}

	if fc, err := cliconfig.LoadFileConfig(p.path); err == nil {
		p.level = fc.LogLevel
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files by rename, so the directory is watched.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	p.logger.Info("config watcher started", log.String("path", p.path))
	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	changed := fc.LogLevel != "" && fc.LogLevel != p.level
	previous := p.level
	if changed {
		p.level = fc.LogLevel
	}
	p.mu.Unlock()

	if !changed {
		return
	}
	p.onLogLevel(fc.LogLevel)
	p.logger.Info("log level changed",
		log.String("from", previous),
		log.String("to", fc.LogLevel),
	)
}

var _ audioship.Plugin = (*Plugin)(nil)
