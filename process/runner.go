package process

import (
	"context"
	"os/exec"
	"time"
)

// Runner executes commands. Packages that shell out accept a Runner so
// tests can substitute canned results.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Config holds defaults applied by an Executor.
type Config struct {
	// Timeout bounds each command. Zero means no timeout.
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// Executor is the Runner backed by real subprocesses.
type Executor struct {
	config Config
}

// NewExecutor creates an Executor.
func NewExecutor(cfg Config) *Executor {
	return &Executor{config: cfg}
}

// Run executes cmd, applying the configured timeout and grace period.
func (e *Executor) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && e.config.GracePeriod > 0 {
		cmd.GracePeriod = e.config.GracePeriod
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	return Run(ctx, cmd)
}

// Available reports whether binary resolves on PATH.
func Available(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
