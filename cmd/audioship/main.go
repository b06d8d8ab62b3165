package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/cliconfig"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/metrics"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/log"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/plugins/configwatcher"
)

const longHelp = `Capture a meeting's audio and stream it to the ingestion service.

audioship records the audio an application plays together with your
microphone, mixes both into one 48 kHz mono stream and sends it over a
WebSocket in three-second chunks until interrupted.

Capture backends:
  app:  pulse (PulseAudio/PipeWire sink monitor), pipe (f32le stereo from a
        file or FIFO, "-" for stdin), helper (program printing f32le stereo)
  mic:  portaudio (build with -tags portaudio), pipe (f32le mono)`

var exampleUsage = strings.TrimSpace(`
  audioship --user-id 7dcb16b8-c05c-4ec4-9524-0003e11acd2a
  audioship --user-id <id> --mode tab --target-app org.mozilla.firefox
  audioship --user-id <id> --app-source pipe --app-pipe /tmp/app.fifo --mode tab --pcm-out - | ffplay -f f32le -ar 48000 -ac 1 -
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "audioship",
		Short:         "Stream application and microphone audio to the ingestion service",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// AUDIOSHIP_* override the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.Logger(cfg.LogLevel, cfg.LogFormat).With().Str("run_id", uuid.NewString()).Logger()
			zl.Info().Interface("config", cfg).Msg("configuration")
			logger := log.NewZerologAdapterWithLogger(zl)

			return run(cmd.Context(), cfg, cfgFile, logger)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.audioship/config.toml)")
	f.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "ingestion WebSocket endpoint")
	f.StringVar(&cfg.UserID, "user-id", cfg.UserID, "user id sent with every message")
	f.StringVar(&cfg.InputDataSource, "input-data-source", cfg.InputDataSource, "input_data_source sent with every message")
	f.StringVar(&cfg.TargetApp, "target-app", cfg.TargetApp, "application whose audio is captured")
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "mix, tab or mic")
	f.StringVar(&cfg.Channel, "channel", cfg.Channel, "channel kept from stereo app audio: left or right")
	f.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "how often accumulated audio is sent")
	f.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "blocks buffered per source before the oldest is dropped")
	f.IntVar(&cfg.MicBlockFrames, "mic-block-frames", cfg.MicBlockFrames, "frames per microphone block")
	f.StringVar(&cfg.AppSource, "app-source", cfg.AppSource, "app capture backend: pulse, pipe or helper")
	f.StringVar(&cfg.AppPipe, "app-pipe", cfg.AppPipe, "f32le stereo input for --app-source pipe (\"-\" for stdin)")
	f.StringVar(&cfg.AppHelper, "app-helper", cfg.AppHelper, "helper program for --app-source helper; receives --target-app as argument")
	f.StringVar(&cfg.MicSource, "mic-source", cfg.MicSource, "mic capture backend: portaudio or pipe")
	f.StringVar(&cfg.MicPipe, "mic-pipe", cfg.MicPipe, "f32le mono input for --mic-source pipe (\"-\" for stdin)")
	f.StringVar(&cfg.PCMOut, "pcm-out", cfg.PCMOut, "write mixed audio as f32le to stdout (\"-\")")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9090)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
	f.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "WebSocket handshake timeout")
	f.IntVar(&cfg.DialAttempts, "dial-attempts", cfg.DialAttempts, "connection attempts before giving up")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		zl := cliconfig.Logger(cfg.LogLevel, cfg.LogFormat)
		zl.Error().Err(err).Msg("audioship")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, cfgFile string, logger log.Logger) error {
	libCfg := audioship.Config{
		ServiceURL:      cfg.ServiceURL,
		UserID:          cfg.UserID,
		InputDataSource: cfg.InputDataSource,
		TargetApp:       cfg.TargetApp,
		Mode:            cfg.Mode,
		Channel:         cfg.Channel,
		FlushInterval:   cfg.FlushInterval,
		QueueCapacity:   cfg.QueueCapacity,
		MicBlockFrames:  cfg.MicBlockFrames,
		AppSource:       cfg.AppSource,
		AppPipe:         cfg.AppPipe,
		AppHelper:       cfg.AppHelper,
		MicSource:       cfg.MicSource,
		MicPipe:         cfg.MicPipe,
		DialTimeout:     cfg.DialTimeout,
		DialAttempts:    cfg.DialAttempts,
	}

	opts := []audioship.Option{
		audioship.WithLogger(logger),
		configwatcher.WithConfigWatcher(configwatcher.Config{Path: cfgFile}),
	}

	if cfg.MetricsAddr != "" {
		m := metrics.New()
		opts = append(opts, audioship.WithMetrics(m))
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", log.Err(err))
			}
		}()
	}
	if cfg.PCMOut == "-" {
		opts = append(opts, audioship.WithPCMWriter(os.Stdout))
	}

	a, err := audioship.New(libCfg, opts...)
	if err != nil {
		return fmt.Errorf("create audioship: %w", err)
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start audioship: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping...")
	case runErr = <-a.Err():
		logger.Error("session failed", log.Err(runErr))
	}

	if err := a.Stop(); err != nil {
		logger.Warn("stop", log.Err(err))
	}
	return runErr
}
