package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kbukum/asrkit/corpus"
	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
)

// DefaultListLimit caps ListRuns when no positive limit is given.
const DefaultListLimit = 50

// Run is the stored summary of one aggregation.
type Run struct {
	ID         string        `json:"run_id"`
	Directory  string        `json:"directory"`
	ReportPath string        `json:"report_path,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Pairs      int           `json:"pair_count"`
	Failures   int           `json:"failure_count"`
	Unmatched  int           `json:"unmatched_count"`
	MeanWER    float64       `json:"mean_wer"`
	CorpusWER  float64       `json:"corpus_wer"`
}

// Store keeps aggregation runs in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens or creates the database at path and brings its schema up to
// date. ":memory:" opens a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("history")

	if path == "" {
		return nil, errors.MissingField("wer.history_path")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.IO("mkdir", filepath.Dir(path), err)
		}
		dsn = "file:" + path
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fromDatabase(fmt.Errorf("open database: %w", err), "database", path)
	}
	// One connection serializes writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fromDatabase(fmt.Errorf("ping database: %w", err), "database", path)
	}
	if err := newMigrationRunner(db, s.log, migrations...).run(ctx); err != nil {
		_ = db.Close()
		return nil, fromDatabase(err, "database", path)
	}
	s.db = db
	s.log.Debug("history opened", logger.Fields(logger.FieldPath, path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores a run with its rows and failures in one transaction.
// Saving the same run twice replaces it.
func (s *Store) SaveReport(ctx context.Context, r *corpus.Report) error {
	if r == nil || r.RunID == "" {
		return errors.MissingField("run_id")
	}
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.RunID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, directory, report_path, started_at, duration_ms,
				pair_count, failure_count, unmatched_count, mean_wer, corpus_wer)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Directory, r.ReportPath, r.StartedAt.UTC().Format(time.RFC3339Nano),
			r.Duration.Milliseconds(), len(r.Rows)+len(r.Failures), len(r.Failures),
			len(r.Unmatched), r.MeanWER(), r.CorpusWER(),
		); err != nil {
			return err
		}

		rowStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_rows (run_id, position, reference_file, hypothesis_file,
				word_error_rate, reference_word_count, asr_word_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer rowStmt.Close() //nolint:errcheck
		for i, row := range r.Rows {
			if _, err := rowStmt.ExecContext(ctx, r.RunID, i, row.ReferenceFile, row.HypothesisFile,
				row.WordErrorRate, row.ReferenceWordCount, row.HypothesisWordCount); err != nil {
				return err
			}
		}

		for _, f := range r.Failures {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO run_failures (run_id, reference_file, hypothesis_file, code, message)
				VALUES (?, ?, ?, ?, ?)`,
				r.RunID, f.ReferenceFile, f.HypothesisFile, string(f.Code), f.Message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fromDatabase(err, "run", r.RunID)
	}
	s.log.Debug("run saved", logger.Fields(logger.FieldRunID, r.RunID, "rows", len(r.Rows)))
	return nil
}

const runColumns = `id, directory, report_path, started_at, duration_ms,
	pair_count, failure_count, unmatched_count, mean_wer, corpus_wer`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		startedAt string
		duration  int64
	)
	if err := sc.Scan(&run.ID, &run.Directory, &run.ReportPath, &startedAt, &duration,
		&run.Pairs, &run.Failures, &run.Unmatched, &run.MeanWER, &run.CorpusWER); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t
	run.Duration = time.Duration(duration) * time.Millisecond
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit means
// DefaultListLimit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fromDatabase(err, "runs", "")
	}
	defer rows.Close() //nolint:errcheck

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fromDatabase(err, "runs", "")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fromDatabase(err, "runs", "")
	}
	return runs, nil
}

// GetRun returns one run. A missing run is NOT_FOUND.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if err != nil {
		return nil, fromDatabase(err, "run", runID)
	}
	return &run, nil
}

// Rows returns the stored rows of a run in report order. A missing run is
// NOT_FOUND.
func (s *Store) Rows(ctx context.Context, runID string) ([]corpus.Row, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT reference_file, hypothesis_file, word_error_rate, reference_word_count, asr_word_count
		FROM run_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fromDatabase(err, "rows", runID)
	}
	defer rows.Close() //nolint:errcheck

	out := []corpus.Row{}
	for rows.Next() {
		var r corpus.Row
		if err := rows.Scan(&r.ReferenceFile, &r.HypothesisFile, &r.WordErrorRate,
			&r.ReferenceWordCount, &r.HypothesisWordCount); err != nil {
			return nil, fromDatabase(err, "rows", runID)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fromDatabase(err, "rows", runID)
	}
	return out, nil
}

// Failures returns the stored failures of a run.
func (s *Store) Failures(ctx context.Context, runID string) ([]corpus.Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reference_file, hypothesis_file, code, message
		FROM run_failures WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fromDatabase(err, "failures", runID)
	}
	defer rows.Close() //nolint:errcheck

	out := []corpus.Failure{}
	for rows.Next() {
		var f corpus.Failure
		var code string
		if err := rows.Scan(&f.ReferenceFile, &f.HypothesisFile, &code, &f.Message); err != nil {
			return nil, fromDatabase(err, "failures", runID)
		}
		f.Code = errors.ErrorCode(code)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fromDatabase(err, "failures", runID)
	}
	return out, nil
}

// CheckHealth pings the database.
func (s *Store) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    "history",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"path": s.path},
	}
	if err := s.db.PingContext(ctx); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

var (
	_ corpus.Recorder             = (*Store)(nil)
	_ observability.HealthChecker = (*Store)(nil)
)
