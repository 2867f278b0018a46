package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"keycast/internal/config"
	"keycast/internal/input"
	"keycast/internal/logging"
	"keycast/internal/metrics"
)

// globalOptions are the persistent flags.
type globalOptions struct {
	configPath string
	logLevel   string
	metrics    bool
	metricsFmt string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "keycast",
		Short: "Show typed key combos in an on-screen overlay",
		Long: `keycast displays the most recent key combos (for example CTRL+c) in a
small overlay near the bottom of the screen for screencasts and demos.
The overlay fades out shortly after the last key release.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $KEYCAST_CONFIG or the platform config dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "print metrics to stderr on exit")
	root.PersistentFlags().StringVar(&opts.metricsFmt, "metrics-format", "prometheus", "metrics dump format (prometheus, json)")

	run := newRunCmd(opts)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, newPreviewCmd(opts), newKeysCmd(), newConfigCmd(opts))
	return root
}

func (o *globalOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ConfigPath()
}

// session bundles what a long-running command sets up from the config.
type session struct {
	cfg     *config.Config
	path    string
	log     *logging.Logger
	metrics *metrics.OverlayMetrics
	dump    bool
	format  metrics.Format
}

// load reads the configuration and applies the flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.path())
	if err != nil {
		return nil, err
	}
	o.override(cfg)
	return cfg, cfg.Validate()
}

func (o *globalOptions) override(cfg *config.Config) {
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
}

func (o *globalOptions) setup() (*session, error) {
	format, err := metrics.ParseFormat(o.metricsFmt)
	if err != nil {
		return nil, err
	}
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	logging.SetDefault(logger)
	logger.Debug("logging configured",
		"level", logging.LevelString(logger.Config().Level),
		"output", logger.Config().Output,
		"config", o.path(),
	)

	return &session{
		cfg:     cfg,
		path:    o.path(),
		log:     logger,
		metrics: metrics.NewOverlayMetrics(nil),
		dump:    o.metrics,
		format:  format,
	}, nil
}

// close dumps the metrics if requested and closes the log file.
func (s *session) close(w io.Writer) {
	if s.dump {
		if err := s.metrics.Registry().Write(w, s.format); err != nil {
			s.log.Warn("write metrics", "error", err)
		}
	}
	s.log.Close()
}

// watch hot-reloads the config file, if there is one, into apply.
func (s *session) watch(o *globalOptions, apply func(*config.Config) error) *config.Loader {
	loader := config.NewLoader(s.path, s.log.WithComponent("config"))
	if _, err := loader.Load(); err != nil {
		s.log.Warn("config watch disabled", "error", err)
		return nil
	}
	loader.OnChange(func(_, cfg *config.Config) {
		cfg = cfg.Clone()
		o.override(cfg)
		if err := apply(cfg); err != nil {
			s.log.Warn("config change rejected", "error", err)
		}
	})
	if err := loader.Watch(); err != nil {
		s.log.Warn("config watch disabled", "error", err)
		loader.Close()
		return nil
	}
	return loader
}

// sourceOptions select the key source for run and preview.
type sourceOptions struct {
	device string
	demo   string
	delay  time.Duration
}

func (so *sourceOptions) register(cmd *cobra.Command, delay time.Duration) {
	cmd.Flags().StringVar(&so.device, "device", "", "evdev device to read instead of autodetected keyboards (Linux)")
	cmd.Flags().StringVar(&so.demo, "demo", "", `replay a chord script instead of reading the keyboard, e.g. "ctrl+c a shift+1"`)
	cmd.Flags().DurationVar(&so.delay, "demo-delay", delay, "pause between demo chords")
}

func (so *sourceOptions) source(cfg *config.Config, logger *slog.Logger, loop bool) (input.Source, error) {
	if so.demo != "" {
		s, err := input.NewScripted(so.demo, so.delay)
		if err != nil {
			return nil, err
		}
		s.Loop = loop
		return s, nil
	}
	device := so.device
	if device == "" {
		device = cfg.Input.Device
	}
	return input.NewPlatform(input.Options{
		Device: device,
		Logger: logger.With("component", "input"),
	}), nil
}
