package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
)

// DefaultGracefulTimeout bounds the stop hooks.
const DefaultGracefulTimeout = 15 * time.Second

// App is an application with a typed config C.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	checkers        []observability.HealthChecker
	onStart         []Hook
	onStop          []Hook
}

// NewApp applies the config defaults, validates the config and sets up the
// logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: DefaultGracefulTimeout,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(base.Name, base.Version)
	return app, nil
}

// AddHealthChecker registers a dependency checked once the start hooks ran.
func (a *App[C]) AddHealthChecker(checkers ...observability.HealthChecker) {
	a.checkers = append(a.checkers, checkers...)
}

// HealthCheckers returns the registered checkers.
func (a *App[C]) HealthCheckers() []observability.HealthChecker {
	return slices.Clone(a.checkers)
}

// ReadyCheck reports an error naming every checker that is down.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	sh := observability.Check(ctx, a.Name, a.Version, a.checkers...)
	var down []string
	for _, h := range sh.Components {
		if h.Status == observability.HealthStatusDown {
			detail := h.Name
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			down = append(down, detail)
		}
	}
	if len(down) > 0 {
		return fmt.Errorf("unhealthy: %v", down)
	}
	return nil
}

// Run starts the app and blocks until a signal arrives or ctx is done, then
// shuts down.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}
	a.Summary.Display(a.Logger)
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask starts the app, runs task and shuts down when it returns. SIGINT
// and SIGTERM cancel the task's context.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.ErrorFields("ready_check", err))
	}

	a.Summary.SetStartupDuration(time.Since(start))
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("shutdown signal received", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		return nil
	}
}

// stop runs the stop hooks newest first within the graceful timeout. Every
// hook runs; the first error is returned.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var firstErr error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.WithError(err).Error("stop hook failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.Logger.Debug("shutdown complete")
	return firstErr
}
