package main

import (
	"context"
	"os"

	"github.com/kbukum/asrkit/corpus"
	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/history"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/storage"
	"github.com/kbukum/asrkit/storage/local"
)

func runWER(ctx context.Context, args []string, out output) error {
	fs, cf := newFlagSet("wer", out)
	dir := fs.StringP("dir", "d", ".", "directory holding references and hypotheses")
	marker := fs.String("marker", "", "substring marking hypothesis files (default _whisper)")
	workers := fs.Int("workers", 0, "pairs scored in parallel (default 4)")
	failFast := fs.Bool("fail-fast", false, "abort at the first failed pair without writing the report")
	match := fs.String("match", "", "hypothesis attachment: longest or all")
	historyPath := fs.String("history", "", "SQLite file recording each run")
	reportName := fs.String("report-name", "", "CSV report file name (default wer_results_werpy.csv)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	app, err := setup(cf, out, func(cfg *AppConfig) {
		w := &cfg.WER
		if fs.Changed("marker") {
			w.Marker = *marker
		}
		if fs.Changed("workers") {
			w.Workers = *workers
		}
		if fs.Changed("fail-fast") {
			w.FailFast = *failFast
		}
		if fs.Changed("match") {
			w.Match = *match
		}
		if fs.Changed("history") {
			w.HistoryPath = *historyPath
		}
		if fs.Changed("report-name") {
			w.ReportName = *reportName
		}
	})
	if err != nil {
		return err
	}
	cfg := app.Cfg
	log := app.Logger

	var opts []corpus.Option
	if cfg.WER.HistoryPath != "" {
		app.OnStart(func(context.Context) error {
			store, err := history.Open(cfg.WER.HistoryPath, history.WithLogger(log))
			if err != nil {
				return err
			}
			app.OnStop(func(context.Context) error { return store.Close() })
			app.AddHealthChecker(store)
			opts = append(opts, corpus.WithRecorder(store))
			return nil
		})
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		store, prefix, err := corpusStore(cfg.Storage, *dir, log)
		if err != nil {
			return err
		}
		opts = append(opts, corpus.WithLogger(log))
		report, err := corpus.NewAggregator(store, cfg.WER, opts...).Aggregate(ctx, prefix)
		if err != nil {
			return err
		}
		if err := renderReport(out.stdout, report); err != nil {
			return err
		}
		if len(report.Failures) > 0 {
			return errItemsFailed
		}
		return nil
	})
}

// corpusStore opens the storage holding dir and returns the prefix to scan.
// Local corpora are plain filesystem paths, so the store is rooted at dir
// itself. Other backends resolve dir below their configured location.
func corpusStore(cfg storage.Config, dir string, log *logger.Logger) (storage.Storage, string, error) {
	if cfg.Provider == storage.ProviderLocal {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", errors.NotFound("directory", dir)
			}
			return nil, "", errors.IO("stat", dir, err)
		}
		if !info.IsDir() {
			return nil, "", errors.InvalidInput("dir", dir+" is not a directory")
		}
		st, err := local.NewStorage(dir)
		return st, "", err
	}

	st, err := storage.New(cfg, log)
	if err != nil {
		return nil, "", err
	}
	if dir == "." {
		dir = ""
	}
	return st, dir, nil
}
