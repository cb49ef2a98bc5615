package server

import (
	"github.com/kbukum/asrkit/security"
	"github.com/kbukum/asrkit/server/middleware"
	"github.com/kbukum/asrkit/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout" validate:"min=0"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout" validate:"min=0"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"min=0"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`                  // e.g. "10MB"
	RateLimit    int                   `yaml:"rate_limit" mapstructure:"rate_limit" validate:"min=0"`       // requests per minute per client, 0 = off
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS          security.TLSConfig    `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets default values for unset fields. Aggregating a large
// corpus can take minutes, so the write timeout is generous.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 600
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if _, err := middleware.ParseSize(c.MaxBodySize); err != nil {
		return validation.New().Custom(false, "max_body_size", err.Error()).Validate()
	}
	return c.TLS.Validate()
}

func (c *Config) maxBodyBytes() int64 {
	n, err := middleware.ParseSize(c.MaxBodySize)
	if err != nil {
		return middleware.DefaultMaxBodySize
	}
	return n
}
