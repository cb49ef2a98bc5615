package bootstrap

import (
	"github.com/kbukum/asrkit/config"
)

// Config is the constraint for application configs. Any struct embedding
// config.ServiceConfig satisfies it through promoted methods:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    WER corpus.Config     `yaml:"wer" mapstructure:"wer"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
