package transcription

import (
	"strings"

	"github.com/kbukum/asrkit/validation"
)

// Defaults.
const (
	DefaultProvider       = "whisper"
	DefaultLanguage       = "en"
	DefaultInputExtension = ".mp3"
	DefaultOutputSuffix   = "_whisper"
)

// Config is the transcription section. The per-backend sections are passed
// to the backend factories as-is.
type Config struct {
	Provider       string `yaml:"provider" mapstructure:"provider" validate:"required"`
	Language       string `yaml:"language" mapstructure:"language"`
	InputExtension string `yaml:"input_extension" mapstructure:"input_extension" validate:"startswith=."`
	OutputSuffix   string `yaml:"output_suffix" mapstructure:"output_suffix" validate:"required"`
	SkipExisting   bool   `yaml:"skip_existing" mapstructure:"skip_existing"`
	FailFast       bool   `yaml:"fail_fast" mapstructure:"fail_fast"`

	Whisper    map[string]any `yaml:"whisper" mapstructure:"whisper"`
	WhisperCLI map[string]any `yaml:"whisper_cli" mapstructure:"whisper_cli"`
	OpenAI     map[string]any `yaml:"openai" mapstructure:"openai"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.InputExtension == "" {
		c.InputExtension = DefaultInputExtension
	}
	if !strings.HasPrefix(c.InputExtension, ".") {
		c.InputExtension = "." + c.InputExtension
	}
	if c.OutputSuffix == "" {
		c.OutputSuffix = DefaultOutputSuffix
	}
}

// Validate checks the section's struct tags.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Settings returns the config section for the named backend, never nil.
func (c *Config) Settings(name string) map[string]any {
	var m map[string]any
	switch name {
	case "whisper":
		m = c.Whisper
	case "whisper-cli", "whisper_cli":
		m = c.WhisperCLI
	case "openai":
		m = c.OpenAI
	}
	if m == nil {
		m = map[string]any{}
	}
	return m
}
