package observability

import (
	"fmt"
	"time"
)

// Config configures trace and metric export.
type Config struct {
	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	// Empty disables telemetry.
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`

	// Filled from the service config.
	ServiceName    string `yaml:"-" mapstructure:"-"`
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.ServiceName == "" {
		c.ServiceName = "asrkit"
	}
}

// Validate checks the sample rate bounds.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be within [0, 1] (got: %g)", c.SampleRate)
	}
	return nil
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}
