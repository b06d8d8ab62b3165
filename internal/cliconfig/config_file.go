package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations. The same
// keys are used for TOML and YAML files.
type FileConfig struct {
	ServiceURL      string `toml:"service_url" yaml:"service_url"`
	UserID          string `toml:"user_id" yaml:"user_id"`
	InputDataSource string `toml:"input_data_source" yaml:"input_data_source"`
	TargetApp       string `toml:"target_app" yaml:"target_app"`
	Mode            string `toml:"mode" yaml:"mode"`
	Channel         string `toml:"channel" yaml:"channel"`
	FlushInterval   string `toml:"flush_interval" yaml:"flush_interval"`
	QueueCapacity   int    `toml:"queue_capacity" yaml:"queue_capacity"`
	MicBlockFrames  int    `toml:"mic_block_frames" yaml:"mic_block_frames"`
	AppSource       string `toml:"app_source" yaml:"app_source"`
	AppPipe         string `toml:"app_pipe" yaml:"app_pipe"`
	AppHelper       string `toml:"app_helper" yaml:"app_helper"`
	MicSource       string `toml:"mic_source" yaml:"mic_source"`
	MicPipe         string `toml:"mic_pipe" yaml:"mic_pipe"`
	PCMOut          string `toml:"pcm_out" yaml:"pcm_out"`
	MetricsAddr     string `toml:"metrics_addr" yaml:"metrics_addr"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
	LogFormat       string `toml:"log_format" yaml:"log_format"`
	DialTimeout     string `toml:"dial_timeout" yaml:"dial_timeout"`
	DialAttempts    int    `toml:"dial_attempts" yaml:"dial_attempts"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml
// or .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.audioship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".audioship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("user-id", fc.UserID, &cfg.UserID)
	s.setString("input-data-source", fc.InputDataSource, &cfg.InputDataSource)
	s.setString("target-app", fc.TargetApp, &cfg.TargetApp)
	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setString("channel", fc.Channel, &cfg.Channel)
	s.setString("app-source", fc.AppSource, &cfg.AppSource)
	s.setString("app-pipe", fc.AppPipe, &cfg.AppPipe)
	s.setString("app-helper", fc.AppHelper, &cfg.AppHelper)
	s.setString("mic-source", fc.MicSource, &cfg.MicSource)
	s.setString("mic-pipe", fc.MicPipe, &cfg.MicPipe)
	s.setString("pcm-out", fc.PCMOut, &cfg.PCMOut)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}

	s.setInt("queue-capacity", fc.QueueCapacity, &cfg.QueueCapacity)
	s.setInt("mic-block-frames", fc.MicBlockFrames, &cfg.MicBlockFrames)
	s.setInt("dial-attempts", fc.DialAttempts, &cfg.DialAttempts)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
