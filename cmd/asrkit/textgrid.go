package main

import (
	"context"
	"fmt"

	"github.com/kbukum/asrkit/media"
	"github.com/kbukum/asrkit/textgrid"
)

func runTextGrid(ctx context.Context, args []string, out output) error {
	fs, cf := newFlagSet("textgrid", out)
	input := fs.StringP("input", "i", "", "audio file to annotate (required)")
	language := fs.String("language", "", "spoken language passed to the recognizer (default en)")
	tier := fs.String("tier", "", "tier name (default whisper)")
	providerName := fs.String("provider", "", "transcription backend: whisper, whisper-cli, openai")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *input == "" {
		return usagef("textgrid: --input is required")
	}

	app, err := setup(cf, out, func(cfg *AppConfig) {
		if fs.Changed("language") {
			cfg.Transcription.Language = *language
		}
		if fs.Changed("tier") {
			cfg.TextGrid.TierName = *tier
		}
		if fs.Changed("provider") {
			cfg.Transcription.Provider = *providerName
		}
	})
	if err != nil {
		return err
	}
	cfg := app.Cfg

	return app.RunTask(ctx, func(ctx context.Context) error {
		p, err := newTranscriber(ctx, cfg.Transcription, app.Logger)
		if err != nil {
			return err
		}
		conv := &textgrid.Converter{
			Provider: p,
			Prober:   media.NewFFProbe(cfg.Media, nil),
			Language: cfg.Transcription.Language,
			TierName: cfg.TextGrid.TierName,
			Log:      app.Logger,
		}
		path, err := conv.Convert(ctx, *input)
		if err != nil {
			return err
		}
		fmt.Fprintln(out.stdout, path)
		return nil
	})
}
