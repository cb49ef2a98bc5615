// Package api exposes the TextGrid assembler, the WER scorer and the corpus
// aggregator over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/asrkit/corpus"
	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/history"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/server"
	"github.com/kbukum/asrkit/sse"
	"github.com/kbukum/asrkit/textgrid"
	"github.com/kbukum/asrkit/transcription"
	"github.com/kbukum/asrkit/validation"
)

// Aggregator runs a corpus aggregation.
type Aggregator interface {
	Aggregate(ctx context.Context, dir string) (*corpus.Report, error)
	AggregateWithProgress(ctx context.Context, dir string, progress corpus.ProgressFunc) (*corpus.Report, error)
}

// Event types of POST /v1/wer/aggregate/stream.
const (
	EventProgress = "progress"
	EventReport   = "report"
)

// RunStore reads stored aggregation runs.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	GetRun(ctx context.Context, runID string) (*history.Run, error)
	Rows(ctx context.Context, runID string) ([]corpus.Row, error)
	Failures(ctx context.Context, runID string) ([]corpus.Failure, error)
}

// Handler serves the /v1 routes.
type Handler struct {
	scorer     corpus.Scorer
	aggregator Aggregator
	runs       RunStore
	tierName   string
	log        *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRunStore enables the run history routes.
func WithRunStore(rs RunStore) Option {
	return func(h *Handler) { h.runs = rs }
}

// WithTierName sets the default TextGrid tier name.
func WithTierName(name string) Option {
	return func(h *Handler) { h.tierName = name }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a Handler.
func New(scorer corpus.Scorer, aggregator Aggregator, opts ...Option) *Handler {
	h := &Handler{
		scorer:     scorer,
		aggregator: aggregator,
		tierName:   textgrid.DefaultTierName,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("api")
	return h
}

// Register adds the routes to r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/textgrid", h.TextGrid)
	v1.POST("/textgrid/validate", h.ValidateTextGrid)
	v1.POST("/wer/score", h.Score)
	v1.POST("/wer/aggregate", h.Aggregate)
	v1.POST("/wer/aggregate/stream", h.AggregateStream)
	if h.runs != nil {
		v1.GET("/wer/runs", h.ListRuns)
		v1.GET("/wer/runs/:id", h.GetRun)
	}
}

// TextGridRequest is the body of POST /v1/textgrid.
type TextGridRequest struct {
	Segments []transcription.Segment `json:"segments" validate:"required,min=1"`
	Duration *float64                `json:"duration" validate:"required"`
	Tier     string                  `json:"tier"`
}

// TextGrid renders segments as a TextGrid document.
func (h *Handler) TextGrid(c *gin.Context) {
	var req TextGridRequest
	if !bind(c, &req) {
		return
	}
	tier := req.Tier
	if tier == "" {
		tier = h.tierName
	}
	doc, err := textgrid.Assemble(req.Segments, *req.Duration, textgrid.WithTierName(tier))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": tier + textgrid.Extension}))
	c.String(http.StatusOK, doc.String())
}

// TextGridSummary describes a parsed document.
type TextGridSummary struct {
	XMin      float64       `json:"xmin"`
	XMax      float64       `json:"xmax"`
	Intervals int           `json:"interval_count"`
	Tiers     []TierSummary `json:"tiers"`
}

// TierSummary describes one tier.
type TierSummary struct {
	Name      string  `json:"name"`
	XMin      float64 `json:"xmin"`
	XMax      float64 `json:"xmax"`
	Intervals int     `json:"interval_count"`
}

// ValidateTextGrid parses a TextGrid body and summarizes it.
func (h *Handler) ValidateTextGrid(c *gin.Context) {
	doc, err := textgrid.Parse(c.Request.Body)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	sum := TextGridSummary{XMin: doc.XMin, XMax: doc.XMax, Intervals: doc.IntervalCount(), Tiers: []TierSummary{}}
	for _, t := range doc.Tiers {
		sum.Tiers = append(sum.Tiers, TierSummary{Name: t.Name, XMin: t.XMin, XMax: t.XMax, Intervals: len(t.Intervals)})
	}
	server.RespondOK(c, sum)
}

// ScoreRequest is the body of POST /v1/wer/score.
type ScoreRequest struct {
	Reference  *string `json:"reference" validate:"required"`
	Hypothesis *string `json:"hypothesis" validate:"required"`
}

// Score scores one reference/hypothesis pair.
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if !bind(c, &req) {
		return
	}
	server.RespondOK(c, h.scorer.Score(*req.Reference, *req.Hypothesis))
}

// AggregateRequest is the body of POST /v1/wer/aggregate.
type AggregateRequest struct {
	Directory string `json:"directory"`
}

// AggregateResponse is a finished run.
type AggregateResponse struct {
	*corpus.Report
	MeanWER   float64 `json:"mean_wer"`
	CorpusWER float64 `json:"corpus_wer"`
}

func newAggregateResponse(r *corpus.Report) AggregateResponse {
	return AggregateResponse{Report: r, MeanWER: r.MeanWER(), CorpusWER: r.CorpusWER()}
}

// Aggregate scores a directory and writes its report. The directory is
// relative to the storage root; an empty one means the root itself.
func (h *Handler) Aggregate(c *gin.Context) {
	dir, ok := bindDirectory(c)
	if !ok {
		return
	}
	report, err := h.aggregator.Aggregate(c.Request.Context(), dir)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, newAggregateResponse(report))
}

// AggregateStream runs the same aggregation as Aggregate and streams a
// progress event per pair, then a report event or an error event.
func (h *Handler) AggregateStream(c *gin.Context) {
	dir, ok := bindDirectory(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan sse.Event, 16)
	go func() {
		defer close(events)
		send := func(ev sse.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		report, err := h.aggregator.AggregateWithProgress(ctx, dir, func(p corpus.Progress) {
			send(sse.Event{Type: EventProgress, Data: p})
		})
		if err != nil {
			send(sse.ErrorEvent(err))
			return
		}
		send(sse.Event{Type: EventReport, Data: newAggregateResponse(report)})
	}()

	if err := sse.Stream(c.Writer, c.Request.WithContext(ctx), events, h.log); err != nil {
		h.log.Warn("aggregation stream ended early", logger.Fields(logger.FieldPath, dir, logger.FieldError, err.Error()))
	}
}

func bindDirectory(c *gin.Context) (string, bool) {
	var req AggregateRequest
	if !bind(c, &req) {
		return "", false
	}
	if strings.Contains(req.Directory, "..") {
		server.RespondWithError(c, errors.InvalidInput("directory", "must not contain '..'"))
		return "", false
	}
	return req.Directory, true
}

// ListRuns lists stored runs, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	limit := history.DefaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			server.RespondWithError(c, errors.InvalidInput("limit", "must be an integer"))
			return
		}
		if err := validation.New().Range("limit", n, 1, 1000).Validate(); err != nil {
			server.RespondWithError(c, err)
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOKWithMeta(c, runs, &server.Meta{Count: len(runs), Limit: limit})
}

// RunDetail is a stored run with its rows and failures.
type RunDetail struct {
	*history.Run
	Rows     []corpus.Row     `json:"rows"`
	Failures []corpus.Failure `json:"failures"`
}

// GetRun returns one stored run.
func (h *Handler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := validation.New().RequiredUUID("id", id).Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	run, err := h.runs.GetRun(ctx, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	rows, err := h.runs.Rows(ctx, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	failures, err := h.runs.Failures(ctx, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, RunDetail{Run: run, Rows: rows, Failures: failures})
}

// bind decodes the JSON body into req and validates it. On failure it
// writes the error response and returns false.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if err == io.EOF {
			server.RespondWithError(c, errors.Validation("request body is required"))
			return false
		}
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			server.RespondWithError(c, errors.New(errors.ErrCodeInvalidInput,
				"request body is too large", http.StatusRequestEntityTooLarge).
				WithDetail("limit", tooLarge.Limit))
			return false
		}
		server.RespondWithError(c, errors.InvalidFormat("request body", "JSON").WithCause(err))
		return false
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}
