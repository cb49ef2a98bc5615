package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kbukum/asrkit/bootstrap"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/provider"
	"github.com/kbukum/asrkit/transcription"
	"github.com/kbukum/asrkit/transcription/openai"
	"github.com/kbukum/asrkit/transcription/whisper"
	"github.com/kbukum/asrkit/transcription/whispercli"
)

// commonFlags are accepted by every command that loads the configuration.
type commonFlags struct {
	configFile string
	logLevel   string
}

func newFlagSet(name string, out output) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out.stderr)
	fs.SortFlags = false
	cf := &commonFlags{}
	fs.StringVarP(&cf.configFile, "config", "c", "", "config file (default: search ./cmd/asrkit/config.yml, ./config/config.yml, ./config.yml)")
	fs.StringVar(&cf.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	return fs, cf
}

// parseFlags parses args and rejects positional arguments.
func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return err
		}
		return &usageError{err: err}
	}
	if fs.NArg() > 0 {
		return usagef("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}

// setup loads the configuration, lets override adjust it from flags and
// builds the app. Logs go to stderr regardless of logging.output so that
// stdout carries only command results.
func setup(cf *commonFlags, out output, override func(*AppConfig)) (*bootstrap.App[*AppConfig], error) {
	cfg, err := loadConfig(cf.configFile)
	if err != nil {
		return nil, &usageError{err: err}
	}
	if cf.logLevel != "" {
		cfg.Logging.Level = cf.logLevel
	}
	if override != nil {
		override(cfg)
	}
	cfg.ApplyDefaults()

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, out.stderr)
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(log))
	if err != nil {
		return nil, &usageError{err: err}
	}
	logger.SetGlobalLogger(log)

	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Init(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		app.OnStop(bootstrap.Hook(shutdown))
		if cfg.Telemetry.Enabled() {
			app.Summary.Track("telemetry", "otlp "+cfg.Telemetry.Endpoint)
		}
		return nil
	})
	return app, nil
}

// providerRegistry knows every transcription backend.
func providerRegistry() *provider.Registry[transcription.Provider] {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	reg.RegisterFactory(whispercli.ProviderName, whispercli.Factory())
	reg.RegisterFactory(openai.ProviderName, openai.Factory())
	return reg
}

// newTranscriber builds the configured backend and warns when it does not
// answer, since every file would then fail.
func newTranscriber(ctx context.Context, cfg transcription.Config, log *logger.Logger) (transcription.Provider, error) {
	p, err := providerRegistry().Create(cfg.Provider, cfg.Settings(cfg.Provider))
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable(ctx) {
		log.Warn("transcription provider is not available", logger.Fields(logger.FieldProvider, p.Name()))
	}
	return p, nil
}
