package transcription

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
)

// File outcomes.
const (
	StatusTranscribed = "ok"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"
)

// FileResult is the outcome for one audio file.
type FileResult struct {
	AudioPath  string
	OutputPath string
	Status     string
	Err        error
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Root        string
	Total       int
	Transcribed int
	Skipped     int
	Failed      int
	Files       []FileResult
	Duration    time.Duration
}

// Batch transcribes every audio file under a root directory and writes each
// transcript next to its recording.
type Batch struct {
	provider Provider
	cfg      Config
	log      *logger.Logger
	metrics  *observability.Metrics
}

// NewBatch creates a Batch. cfg defaults are applied.
func NewBatch(p Provider, cfg Config, log *logger.Logger) *Batch {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Batch{
		provider: p,
		cfg:      cfg,
		log:      log.WithComponent("transcription.batch"),
		metrics:  observability.DefaultMetrics(),
	}
}

// OutputPath returns the transcript path for an audio file:
// <dir>/<base><suffix>.txt.
func (b *Batch) OutputPath(audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(filepath.Dir(audioPath), base+b.cfg.OutputSuffix+".txt")
}

// Run walks root recursively, counts the matching files, then transcribes
// them in walk order. A failed file is recorded and the run continues unless
// FailFast is set, in which case Run returns the partial result and the error.
func (b *Batch) Run(ctx context.Context, root string) (*BatchResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBatch,
		attribute.String(observability.AttrDirectory, root),
		attribute.String(observability.AttrProvider, b.provider.Name()),
	)
	defer span.End()

	start := time.Now()
	files, err := b.collect(root)
	if err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}

	result := &BatchResult{Root: root, Total: len(files)}
	if len(files) == 0 {
		b.log.Warn("no audio files found", logger.Fields(logger.FieldPath, root, "extension", b.cfg.InputExtension))
	} else {
		b.log.Info("transcribing", logger.Fields(logger.FieldPath, root, "files", len(files), logger.FieldProvider, b.provider.Name()))
	}

	for i, audioPath := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		fr := b.transcribeOne(ctx, audioPath)
		result.Files = append(result.Files, fr)
		b.metrics.RecordFileTranscribed(ctx, b.provider.Name(), fr.Status)

		progress := fmt.Sprintf("%d/%d", i+1, len(files))
		switch fr.Status {
		case StatusTranscribed:
			result.Transcribed++
			b.log.Info("transcribed", logger.Fields("progress", progress, logger.FieldPath, audioPath, "output", fr.OutputPath))
		case StatusSkipped:
			result.Skipped++
			b.log.Info("skipped, transcript exists", logger.Fields("progress", progress, logger.FieldPath, audioPath))
		case StatusFailed:
			result.Failed++
			b.log.Error("transcription failed", logger.Fields("progress", progress, logger.FieldPath, audioPath, logger.FieldError, fr.Err.Error()))
			if b.cfg.FailFast {
				result.Duration = time.Since(start)
				observability.FailSpan(span, fr.Err)
				return result, fr.Err
			}
		}
	}

	result.Duration = time.Since(start)
	b.log.Info("batch complete", logger.Fields(
		"total", result.Total,
		"transcribed", result.Transcribed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		logger.FieldDuration, result.Duration.Milliseconds(),
	))
	return result, nil
}

func (b *Batch) transcribeOne(ctx context.Context, audioPath string) FileResult {
	fr := FileResult{AudioPath: audioPath, OutputPath: b.OutputPath(audioPath)}

	if b.cfg.SkipExisting {
		if _, err := os.Stat(fr.OutputPath); err == nil {
			fr.Status = StatusSkipped
			return fr
		}
	}

	resp, err := b.provider.Transcribe(ctx, TranscriptionRequest{
		AudioPath: audioPath,
		Language:  b.cfg.Language,
	})
	if err != nil {
		fr.Status, fr.Err = StatusFailed, err
		return fr
	}
	if err := os.WriteFile(fr.OutputPath, []byte(resp.Text), 0o644); err != nil { //nolint:gosec // transcripts are not secret
		fr.Status, fr.Err = StatusFailed, errors.IO("write", fr.OutputPath, err)
		return fr
	}
	fr.Status = StatusTranscribed
	return fr
}

// collect returns the files under root whose extension matches, in lexical
// walk order. Symlinked files are included; symlinked directories are not
// entered.
func (b *Batch) collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("directory", root)
		}
		return nil, errors.IO("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput("root", root+" is not a directory")
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.EqualFold(filepath.Ext(p), b.cfg.InputExtension) && isRegular(p, d) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.IO("walk", root, err)
	}
	return files, nil
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
