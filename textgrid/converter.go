package textgrid

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/media"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/transcription"
)

// Extension is the file extension of written documents.
const Extension = ".TextGrid"

// Converter transcribes one audio file and writes its TextGrid next to it.
type Converter struct {
	Provider transcription.Provider
	Prober   media.Prober
	Language string
	TierName string
	Log      *logger.Logger
}

// OutputPath returns <dir>/<base>.TextGrid for an audio path.
func OutputPath(audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(filepath.Dir(audioPath), base+Extension)
}

// Convert probes the media duration, transcribes the file, assembles the
// document and writes it as UTF-8. It returns the written path.
func (c *Converter) Convert(ctx context.Context, audioPath string) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanConvert,
		attribute.String(observability.AttrAudioPath, audioPath))
	defer span.End()

	out, err := c.convert(ctx, audioPath)
	if err != nil {
		observability.FailSpan(span, err)
		return "", err
	}
	return out, nil
}

func (c *Converter) convert(ctx context.Context, audioPath string) (string, error) {
	if c.Provider == nil || c.Prober == nil {
		return "", errors.MissingField("converter provider and prober")
	}
	log := c.Log
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	duration, err := c.Prober.ProbeDuration(ctx, audioPath)
	if err != nil {
		return "", err
	}

	resp, err := c.Provider.Transcribe(ctx, transcription.TranscriptionRequest{
		AudioPath: audioPath,
		Language:  c.Language,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Segments) == 0 {
		return "", errors.InvalidInput("segments", "the transcription returned no segments")
	}

	content, err := Render(resp.Segments, duration, WithTierName(c.TierName))
	if err != nil {
		return "", err
	}

	outPath := OutputPath(audioPath)
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil { //nolint:gosec // annotation output is not secret
		return "", errors.IO("write", outPath, err)
	}
	log.Info("textgrid written", logger.Fields(
		logger.FieldPath, outPath,
		"intervals", len(resp.Segments),
		"media_seconds", duration,
	), logger.DurationFields("convert", time.Since(start)))
	return outPath, nil
}
