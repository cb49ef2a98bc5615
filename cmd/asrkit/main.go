// Command asrkit transcribes recordings, builds TextGrid annotations and
// scores transcripts against references.
//
//	asrkit transcribe --root recordings
//	asrkit textgrid --input talk1.mp3
//	asrkit wer --dir transcripts
//	asrkit serve --port 8080
//	asrkit version
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/asrkit/errors"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errItemsFailed reports that a command finished but some of its files or
// pairs failed. The failures are already logged.
var errItemsFailed = stderrors.New("some items failed")

// usageError is a bad invocation: unknown flags, missing arguments or an
// invalid configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, out output) error
}

// output carries the process streams: results go to stdout, logs to stderr.
type output struct {
	stdout io.Writer
	stderr io.Writer
}

func commands() []command {
	return []command{
		{"transcribe", "transcribe every audio file below a directory", runTranscribe},
		{"textgrid", "write a TextGrid annotation for one audio file", runTextGrid},
		{"wer", "score hypotheses against references and write the CSV report", runWER},
		{"serve", "serve the HTTP API", runServe},
		{"version", "print version information", runVersion},
	}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], output{stdout: os.Stdout, stderr: os.Stderr}))
}

func run(ctx context.Context, args []string, out output) int {
	if len(args) == 0 {
		printUsage(out.stderr)
		return exitUsage
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(out.stdout)
		return exitOK
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return exitCode(c.run(ctx, args[1:], out), out.stderr)
		}
	}
	fmt.Fprintf(out.stderr, "asrkit: unknown command %q\n\n", args[0])
	printUsage(out.stderr)
	return exitUsage
}

func exitCode(err error, stderr io.Writer) int {
	var usage *usageError
	switch {
	case err == nil, stderrors.Is(err, pflag.ErrHelp):
		return exitOK
	case stderrors.Is(err, errItemsFailed):
		return exitFailure
	case stderrors.As(err, &usage):
		fmt.Fprintf(stderr, "asrkit: %v\n", err)
		return exitUsage
	default:
		if appErr, ok := errors.AsAppError(err); ok {
			fmt.Fprintf(stderr, "asrkit: %s: %s\n", appErr.Code, appErr.Message)
		} else {
			fmt.Fprintf(stderr, "asrkit: %v\n", err)
		}
		return exitFailure
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: asrkit <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'asrkit <command> --help' for the command's flags.")
}
