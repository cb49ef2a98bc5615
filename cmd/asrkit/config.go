package main

import (
	"fmt"

	"github.com/kbukum/asrkit/config"
	"github.com/kbukum/asrkit/corpus"
	"github.com/kbukum/asrkit/media"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/server"
	"github.com/kbukum/asrkit/storage"
	"github.com/kbukum/asrkit/textgrid"
	"github.com/kbukum/asrkit/transcription"
	"github.com/kbukum/asrkit/version"
)

// envPrefix scopes environment overrides: ASRKIT_WER_WORKERS sets wer.workers.
const envPrefix = "ASRKIT"

// AppConfig is the asrkit configuration file.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	TextGrid      TextGridConfig       `yaml:"textgrid" mapstructure:"textgrid"`
	WER           corpus.Config        `yaml:"wer" mapstructure:"wer"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry     observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// TextGridConfig is the textgrid section.
type TextGridConfig struct {
	TierName string `yaml:"tier_name" mapstructure:"tier_name"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Media.ApplyDefaults()
	if c.TextGrid.TierName == "" {
		c.TextGrid.TierName = textgrid.DefaultTierName
	}
	c.WER.ApplyDefaults()
	c.Server.ApplyDefaults()

	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	sections := []struct {
		name     string
		validate func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"storage", c.Storage.Validate},
		{"transcription", c.Transcription.Validate},
		{"wer", c.WER.Validate},
		{"server", c.Server.Validate},
		{"telemetry", c.Telemetry.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// loadConfig reads the config file (explicit path or the standard search
// locations), the .env file and ASRKIT_ environment variables.
func loadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig("asrkit", &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
