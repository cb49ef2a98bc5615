package corpus

import "github.com/kbukum/asrkit/validation"

// Defaults.
const (
	DefaultMarker  = "_whisper"
	DefaultWorkers = 4
)

// Config is the wer section.
type Config struct {
	Marker      string   `yaml:"marker" mapstructure:"marker" validate:"required"`
	ReportName  string   `yaml:"report_name" mapstructure:"report_name" validate:"required"`
	Workers     int      `yaml:"workers" mapstructure:"workers" validate:"min=1,max=64"`
	FailFast    bool     `yaml:"fail_fast" mapstructure:"fail_fast"`
	Match       string   `yaml:"match" mapstructure:"match" validate:"oneof=longest all"`
	Extensions  []string `yaml:"extensions" mapstructure:"extensions"`
	HistoryPath string   `yaml:"history_path" mapstructure:"history_path"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if c.ReportName == "" {
		c.ReportName = DefaultReportName
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Match == "" {
		c.Match = string(MatchLongest)
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".txt"}
	}
}

// Validate checks the section's struct tags.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
