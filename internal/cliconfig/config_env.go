package cliconfig

import "os"

// EnvPrefix prefixes every environment variable audioship reads.
const EnvPrefix = "AUDIOSHIP_"

// ApplyEnvConfig applies configuration from environment variables (AUDIOSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("service-url", env("SERVICE_URL"), &cfg.ServiceURL)
	s.setString("user-id", env("USER_ID"), &cfg.UserID)
	s.setString("input-data-source", env("INPUT_DATA_SOURCE"), &cfg.InputDataSource)
	s.setString("target-app", env("TARGET_APP"), &cfg.TargetApp)
	s.setString("mode", env("MODE"), &cfg.Mode)
	s.setString("channel", env("CHANNEL"), &cfg.Channel)
	s.setString("app-source", env("APP_SOURCE"), &cfg.AppSource)
	s.setString("app-pipe", env("APP_PIPE"), &cfg.AppPipe)
	s.setString("app-helper", env("APP_HELPER"), &cfg.AppHelper)
	s.setString("mic-source", env("MIC_SOURCE"), &cfg.MicSource)
	s.setString("mic-pipe", env("MIC_PIPE"), &cfg.MicPipe)
	s.setString("pcm-out", env("PCM_OUT"), &cfg.PCMOut)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("flush-interval", env("FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", env("DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("queue-capacity", env("QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("mic-block-frames", env("MIC_BLOCK_FRAMES"), &cfg.MicBlockFrames); err != nil {
		return err
	}
	if err := s.setIntFromString("dial-attempts", env("DIAL_ATTEMPTS"), &cfg.DialAttempts); err != nil {
		return err
	}

	return nil
}
