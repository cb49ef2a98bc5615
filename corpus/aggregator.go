package corpus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/storage"
	"github.com/kbukum/asrkit/wer"
)

// Score is the outcome of scoring one pair.
type Score = wer.Result

// Scorer scores a raw reference/hypothesis pair. Implementations normalize
// both texts; word counts are taken from the normalized texts.
type Scorer interface {
	Score(reference, hypothesis string) Score
}

// Recorder persists finished reports.
type Recorder interface {
	SaveReport(ctx context.Context, r *Report) error
}

// Aggregator scores every reference/hypothesis pair in a directory and
// writes the CSV report into it.
type Aggregator struct {
	store    storage.Storage
	cfg      Config
	scorer   Scorer
	recorder Recorder
	log      *logger.Logger
	metrics  *observability.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithScorer replaces the default wer.Scorer.
func WithScorer(s Scorer) Option {
	return func(a *Aggregator) { a.scorer = s }
}

// WithRecorder stores each finished report.
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAggregator creates an Aggregator over store. cfg defaults are applied.
func NewAggregator(store storage.Storage, cfg Config, opts ...Option) *Aggregator {
	cfg.ApplyDefaults()
	a := &Aggregator{
		store:   store,
		cfg:     cfg,
		scorer:  wer.Scorer{},
		log:     logger.Nop(),
		metrics: observability.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("corpus")
	return a
}

// Progress reports one finished pair while an aggregation runs.
type Progress struct {
	Done          int     `json:"done"`
	Total         int     `json:"total"`
	Reference     string  `json:"reference_file"`
	Hypothesis    string  `json:"hypothesis_file"`
	WordErrorRate float64 `json:"word_error_rate"`
	Error         string  `json:"error,omitempty"`
}

// ProgressFunc receives Progress values one at a time.
type ProgressFunc func(Progress)

type job struct {
	ref, hyp string
}

type outcome struct {
	row     Row
	failure *Failure
}

// Aggregate lists dir, pairs its files, scores each pair and writes the
// report to dir/<report_name>, replacing any previous one. Rows follow the
// sorted discovery order whatever order the workers finish in.
//
// A pair that cannot be read becomes a Failure and the run continues. With
// FailFast the first failure aborts the run and no report is written.
func (a *Aggregator) Aggregate(ctx context.Context, dir string) (*Report, error) {
	return a.AggregateWithProgress(ctx, dir, nil)
}

// AggregateWithProgress is Aggregate with a callback invoked after every
// scored or failed pair. Calls are serialized; Done counts up to Total.
func (a *Aggregator) AggregateWithProgress(ctx context.Context, dir string, progress ProgressFunc) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Directory: a.location(ctx, dir),
		StartedAt: time.Now().UTC(),
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanAggregate,
		attribute.String(observability.AttrDirectory, report.Directory),
		attribute.String(observability.AttrRunID, report.RunID),
	)
	defer span.End()

	log := a.log.WithFields(logger.Fields(logger.FieldRunID, report.RunID))

	files, err := storage.ListDir(ctx, a.store, dir)
	if err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}

	discovery := Discover(names, a.cfg.Marker,
		WithMatchMode(MatchMode(a.cfg.Match)),
		WithExtensions(a.cfg.Extensions...),
		WithExclude(a.cfg.ReportName),
	)
	report.Pairings = discovery.Pairings
	report.Unmatched = discovery.Unmatched
	for _, h := range discovery.Unmatched {
		log.Warn("hypothesis has no reference", logger.Fields(logger.FieldHypothesis, h))
	}

	var jobs []job
	for _, p := range discovery.Pairings {
		for _, h := range p.Hypotheses {
			jobs = append(jobs, job{ref: p.Reference, hyp: h})
		}
	}
	log.Info("scoring pairs", logger.Fields(
		logger.FieldPath, report.Directory,
		"references", len(discovery.Pairings),
		"pairs", len(jobs),
		"workers", a.cfg.Workers,
	))

	var (
		mu   sync.Mutex
		done int
	)
	notify := func(p Progress) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		p.Done, p.Total = done, len(jobs)
		progress(p)
	}

	results := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			row, err := a.scorePair(gctx, dir, j)
			if err != nil {
				f := newFailure(j.ref, j.hyp, err)
				results[i].failure = &f
				a.metrics.RecordPairFailed(gctx, string(f.Code))
				log.Error("pair failed", logger.Fields(
					logger.FieldReference, j.ref,
					logger.FieldHypothesis, j.hyp,
					logger.FieldError, err.Error(),
				))
				notify(Progress{Reference: j.ref, Hypothesis: j.hyp, Error: err.Error()})
				if a.cfg.FailFast {
					return err
				}
				return nil
			}
			results[i].row = row
			a.metrics.RecordPairScored(gctx, row.WordErrorRate)
			notify(Progress{Reference: j.ref, Hypothesis: j.hyp, WordErrorRate: row.WordErrorRate})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Rows = make([]Row, 0, len(jobs))
	report.Failures = []Failure{}
	for _, o := range results {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			continue
		}
		report.Rows = append(report.Rows, o.row)
	}

	if err := a.writeReport(ctx, dir, report); err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}
	report.Duration = time.Since(report.StartedAt)

	if a.recorder != nil {
		if err := a.recorder.SaveReport(ctx, report); err != nil {
			log.Error("saving run history failed", logger.ErrorFields("save_report", err))
		}
	}

	log.Info("aggregation complete", logger.Fields(
		"rows", len(report.Rows),
		"failures", len(report.Failures),
		"unmatched", len(report.Unmatched),
		"report", report.ReportPath,
		logger.FieldDuration, report.Duration.Milliseconds(),
	))
	return report, nil
}

func (a *Aggregator) scorePair(ctx context.Context, dir string, j job) (Row, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanScorePair,
		attribute.String(observability.AttrReference, j.ref),
		attribute.String(observability.AttrHypothesis, j.hyp),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	ref, err := a.readText(ctx, storage.Join(dir, j.ref))
	if err != nil {
		observability.FailSpan(span, err)
		return Row{}, err
	}
	hyp, err := a.readText(ctx, storage.Join(dir, j.hyp))
	if err != nil {
		observability.FailSpan(span, err)
		return Row{}, err
	}

	s := a.scorer.Score(ref, hyp)
	span.SetAttributes(attribute.Float64(observability.AttrWER, s.WER))
	return Row{
		ReferenceFile:       j.ref,
		HypothesisFile:      j.hyp,
		WordErrorRate:       s.WER,
		ReferenceWordCount:  s.ReferenceWords,
		HypothesisWordCount: s.HypothesisWords,
	}, nil
}

// readText reads a UTF-8 transcript. A leading byte order mark is dropped.
func (a *Aggregator) readText(ctx context.Context, p string) (string, error) {
	data, err := storage.ReadAll(ctx, a.store, p)
	if err != nil {
		if errors.IsAppError(err) {
			return "", err
		}
		return "", errors.IO("read", p, err)
	}
	if !utf8.Valid(data) {
		return "", errors.IO("decode", p, fmt.Errorf("invalid UTF-8"))
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func (a *Aggregator) writeReport(ctx context.Context, dir string, report *Report) error {
	content, err := EncodeCSV(report.Rows)
	if err != nil {
		return errors.Internal(err)
	}
	p := storage.Join(dir, a.cfg.ReportName)
	if err := storage.WriteString(ctx, a.store, p, content); err != nil {
		if errors.IsAppError(err) {
			return err
		}
		return errors.IO("write", p, err)
	}
	report.ReportPath = a.location(ctx, p)
	return nil
}

func (a *Aggregator) location(ctx context.Context, p string) string {
	if u, err := a.store.URL(ctx, p); err == nil && u != "" {
		return u
	}
	return p
}
