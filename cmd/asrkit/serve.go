package main

import (
	"context"
	"fmt"

	"github.com/kbukum/asrkit/api"
	"github.com/kbukum/asrkit/corpus"
	"github.com/kbukum/asrkit/history"
	"github.com/kbukum/asrkit/server"
	"github.com/kbukum/asrkit/storage"
	"github.com/kbukum/asrkit/wer"

	_ "github.com/kbukum/asrkit/storage/local" // registers the local backend
	_ "github.com/kbukum/asrkit/storage/s3"    // registers the s3 backend
)

func runServe(ctx context.Context, args []string, out output) error {
	fs, cf := newFlagSet("serve", out)
	host := fs.String("host", "", "listen host (default 127.0.0.1)")
	port := fs.IntP("port", "p", 0, "listen port (default 8080)")
	historyPath := fs.String("history", "", "SQLite file recording aggregation runs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	app, err := setup(cf, out, func(cfg *AppConfig) {
		if fs.Changed("host") {
			cfg.Server.Host = *host
		}
		if fs.Changed("port") {
			cfg.Server.Port = *port
		}
		if fs.Changed("history") {
			cfg.WER.HistoryPath = *historyPath
		}
	})
	if err != nil {
		return err
	}
	cfg := app.Cfg
	log := app.Logger

	app.OnStart(func(ctx context.Context) error {
		store, err := storage.New(cfg.Storage, log)
		if err != nil {
			return err
		}
		app.Summary.Track("storage", cfg.Storage.Provider+" "+storageLocation(cfg.Storage))

		aggOpts := []corpus.Option{corpus.WithLogger(log)}
		apiOpts := []api.Option{api.WithTierName(cfg.TextGrid.TierName), api.WithLogger(log)}
		if cfg.WER.HistoryPath != "" {
			runs, err := history.Open(cfg.WER.HistoryPath, history.WithLogger(log))
			if err != nil {
				return err
			}
			app.OnStop(func(context.Context) error { return runs.Close() })
			app.AddHealthChecker(runs)
			app.Summary.Track("history", "sqlite "+cfg.WER.HistoryPath)
			aggOpts = append(aggOpts, corpus.WithRecorder(runs))
			apiOpts = append(apiOpts, api.WithRunStore(runs))
		}

		srv := server.New(cfg.Server, log)
		srv.RegisterSystemEndpoints(cfg.Name, app.HealthCheckers()...)
		api.New(wer.Scorer{}, corpus.NewAggregator(store, cfg.WER, aggOpts...), apiOpts...).
			Register(srv.GinEngine())
		for _, r := range srv.Routes() {
			app.Summary.TrackRoute(r.Method, r.Path, r.Handler)
		}

		if err := srv.Start(ctx); err != nil {
			return err
		}
		app.OnStop(srv.Stop)
		app.Summary.Track("http", srv.Addr())
		return nil
	})
	return app.Run(ctx)
}

func storageLocation(cfg storage.Config) string {
	if cfg.Provider == storage.ProviderS3 {
		return fmt.Sprintf("s3://%s", cfg.Bucket)
	}
	return cfg.BasePath
}
