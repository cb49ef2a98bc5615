// Package server runs the asrkit HTTP API on gin, served over HTTP/1.1 and
// cleartext HTTP/2 (h2c).
//
// Every request passes through the middleware in server/middleware: panic
// recovery, X-Request-Id propagation, CORS, a body size limit, request
// logging and an optional per-client rate limit. Errors are written with the
// AppError envelope:
//
//	{"error": {"code": "INVALID_INPUT", "message": "...", "retryable": false}}
//
// RegisterSystemEndpoints adds /health, /alive and /version; the API routes
// live in package api.
package server
