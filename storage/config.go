package storage

import (
	"github.com/kbukum/asrkit/errors"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "."
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration. Backend-specific fields are ignored by
// backends that do not use them.
type Config struct {
	// Provider selects the backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider" validate:"oneof=local s3"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	Bucket         string `mapstructure:"bucket" json:"bucket"`
	Region         string `mapstructure:"region" json:"region"`
	Endpoint       string `mapstructure:"endpoint" json:"endpoint"`
	AccessKey      string `mapstructure:"access_key" json:"-"`
	SecretKey      string `mapstructure:"secret_key" json:"-"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.MissingField("storage.base_path")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return errors.MissingField("storage.bucket")
		}
	default:
		return errors.InvalidInput("storage.provider", "unsupported storage provider "+c.Provider)
	}
	return nil
}
