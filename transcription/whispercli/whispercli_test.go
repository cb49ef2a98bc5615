package whispercli

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/process"
	"github.com/kbukum/asrkit/transcription"
)

// fakeRunner records the command and writes output into --output_dir the
// way whisper does.
type fakeRunner struct {
	cmd    process.Command
	output string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.cmd = cmd
	if f.err != nil {
		return &process.Result{ExitCode: 1}, f.err
	}
	i := slices.Index(cmd.Args, "--output_dir")
	if f.output != "" && i >= 0 {
		name := filepath.Base(cmd.Args[0])
		name = name[:len(name)-len(filepath.Ext(name))] + ".json"
		if err := os.WriteFile(filepath.Join(cmd.Args[i+1], name), []byte(f.output), 0o644); err != nil {
			return nil, err
		}
	}
	return &process.Result{}, nil
}

func audioFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "talk1.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscribe(t *testing.T) {
	runner := &fakeRunner{output: `{"text":" hello world","language":"en","segments":[
		{"id":0,"start":0.0,"end":2.0,"text":" hello "},
		{"id":1,"start":2.0,"end":5.0,"text":" world"}]}`}
	p := NewProvider(Config{Model: "medium"}, runner)

	audio := audioFile(t)
	resp, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audio, Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if resp.Text != " hello world" || len(resp.Segments) != 2 || resp.Duration != 5.0 {
		t.Errorf("unexpected response %+v", resp)
	}

	args := runner.cmd.Args
	if runner.cmd.Binary != "whisper" || args[0] != audio {
		t.Errorf("unexpected command %s %v", runner.cmd.Binary, args)
	}
	for _, want := range [][2]string{{"--model", "medium"}, {"--language", "en"}, {"--output_format", "json"}, {"--fp16", "False"}} {
		i := slices.Index(args, want[0])
		if i < 0 || args[i+1] != want[1] {
			t.Errorf("expected %s %s in %v", want[0], want[1], args)
		}
	}
	outDir := args[slices.Index(args, "--output_dir")+1]
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("scratch dir %s should be removed", outDir)
	}
}

func TestTranscribeRequestModelOverrides(t *testing.T) {
	runner := &fakeRunner{output: `{"text":"x","segments":[]}`}
	p := NewProvider(Config{}, runner)
	if _, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audioFile(t), Model: "tiny"}); err != nil {
		t.Fatal(err)
	}
	i := slices.Index(runner.cmd.Args, "--model")
	if runner.cmd.Args[i+1] != "tiny" {
		t.Errorf("expected request model, got %v", runner.cmd.Args)
	}
	if slices.Contains(runner.cmd.Args, "--language") {
		t.Error("language flag should be omitted when empty")
	}
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		audio  bool
		code   errors.ErrorCode
	}{
		{"missing audio", &fakeRunner{}, false, errors.ErrCodeIO},
		{"process failure", &fakeRunner{err: errors.ExternalServiceError("whisper", nil)}, true, errors.ErrCodeExternalService},
		{"no output file", &fakeRunner{}, true, errors.ErrCodeIO},
		{"malformed output", &fakeRunner{output: "{"}, true, errors.ErrCodeInvalidFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "none.wav")
			if tc.audio {
				path = audioFile(t)
			}
			_, err := NewProvider(Config{}, tc.runner).Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: path})
			if !errors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestFactoryAndAvailability(t *testing.T) {
	p, err := Factory()(map[string]any{"binary": "asrkit-definitely-missing-binary", "timeout": "1m"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != ProviderName {
		t.Errorf("unexpected name %q", p.Name())
	}
	if p.IsAvailable(context.Background()) {
		t.Error("missing binary must not be available")
	}
}
