package httpclient

import (
	"time"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/resilience"
	"github.com/kbukum/asrkit/security"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// Service names the remote in errors and logs, e.g. "whisper".
	Service string `yaml:"service" mapstructure:"service"`

	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures the transport for https backends. Nil uses the system
	// roots.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Service == "" {
		c.Service = "http"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.InvalidInput("timeout", "must be positive")
	}
	return c.TLS.Validate()
}

// DefaultRetryConfig returns the retry policy used for HTTP backends:
// connection failures, timeouts, 429 and 5xx are retried.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
