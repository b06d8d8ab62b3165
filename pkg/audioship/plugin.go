package audioship

import "context"

// Plugin extends an Audioship instance with optional behavior.
// Plugins are initialized in registration order by Start and shut down in
// reverse order by Stop.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin learns about the instance it runs in.
type PluginConfig struct {
	ServiceURL      string
	UserID          string
	InputDataSource string
	TargetApp       string
	Mode            string
	Logger          Logger
}

// BasePlugin implements Plugin with no-ops. Embed it and override what
// the plugin needs.
type BasePlugin struct{}

func (BasePlugin) Name() string                                   { return "base" }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }
