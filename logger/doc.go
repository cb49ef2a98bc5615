// Package logger provides structured logging for asrkit using zerolog.
//
// It supports console and JSON output, log level configuration and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("corpus")
//	log.Info("report written", logger.Fields("rows", 12, "path", out))
package logger
