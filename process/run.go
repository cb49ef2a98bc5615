package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/asrkit/errors"
)

const stderrTailLines = 5

// Run executes a subprocess and waits for it to complete.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.MissingField("binary")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	// Own process group so cancellation reaches children too.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	switch {
	case stderrors.Is(err, exec.ErrNotFound):
		appErr := errors.ServiceUnavailable(cmd.Binary).WithCause(err)
		appErr.Retryable = false
		return result, appErr
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return result, errors.Timeout(cmd.Binary).WithCause(ctx.Err())
	case ctx.Err() != nil:
		return result, fmt.Errorf("%s: killed by context: %w", cmd.Binary, ctx.Err())
	}
	return result, errors.ExternalServiceError(cmd.Binary, err).
		WithDetail("exit_code", result.ExitCode).
		WithDetail("stderr", result.StderrTail(stderrTailLines))
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
