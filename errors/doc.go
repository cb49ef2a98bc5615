// Package errors provides the structured error type shared by every asrkit
// package. An AppError carries a machine-readable code, a human-readable
// message, retryable detection and the HTTP status the API layer responds
// with.
package errors
