package main

import (
	"context"
	"fmt"

	"github.com/kbukum/asrkit/transcription"
)

func runTranscribe(ctx context.Context, args []string, out output) error {
	fs, cf := newFlagSet("transcribe", out)
	root := fs.String("root", ".", "directory searched recursively for audio files")
	ext := fs.String("ext", "", "audio file extension (default from config, .mp3)")
	language := fs.String("language", "", "spoken language passed to the recognizer (default en)")
	providerName := fs.String("provider", "", "transcription backend: whisper, whisper-cli, openai")
	skipExisting := fs.Bool("skip-existing", false, "skip files whose transcript already exists")
	failFast := fs.Bool("fail-fast", false, "stop at the first failed file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	app, err := setup(cf, out, func(cfg *AppConfig) {
		t := &cfg.Transcription
		if fs.Changed("ext") {
			t.InputExtension = *ext
		}
		if fs.Changed("language") {
			t.Language = *language
		}
		if fs.Changed("provider") {
			t.Provider = *providerName
		}
		if fs.Changed("skip-existing") {
			t.SkipExisting = *skipExisting
		}
		if fs.Changed("fail-fast") {
			t.FailFast = *failFast
		}
	})
	if err != nil {
		return err
	}
	cfg := app.Cfg.Transcription

	return app.RunTask(ctx, func(ctx context.Context) error {
		p, err := newTranscriber(ctx, cfg, app.Logger)
		if err != nil {
			return err
		}
		res, err := transcription.NewBatch(p, cfg, app.Logger).Run(ctx, *root)
		if res != nil {
			fmt.Fprintf(out.stdout, "%d files: %d transcribed, %d skipped, %d failed (%s)\n",
				res.Total, res.Transcribed, res.Skipped, res.Failed, res.Duration.Round(1e6))
		}
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return errItemsFailed
		}
		return nil
	})
}
