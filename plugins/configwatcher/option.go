package configwatcher

import "github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"

// WithConfigWatcher returns an audioship Option that enables config file
// watching.
//
// Usage:
//
//	a, err := audioship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/etc/audioship/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) audioship.Option {
	return audioship.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher watches the default config path.
func WithDefaultConfigWatcher() audioship.Option {
	return WithConfigWatcher(DefaultConfig())
}
