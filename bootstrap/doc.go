// Package bootstrap runs asrkit entry points with a uniform lifecycle.
//
// An App validates a typed config, sets up logging, runs start hooks, then
// either blocks until a signal (Run) or executes one finite task (RunTask),
// and finally runs stop hooks within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStart(srv.Start)
//	app.OnStop(srv.Stop)
//	err = app.Run(ctx)
package bootstrap
