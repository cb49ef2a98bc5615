// Package process runs external tools (ffprobe, the whisper CLI) with
// captured output and graceful cancellation.
//
// A canceled context sends SIGTERM to the whole process group and escalates
// to SIGKILL after the grace period. Failures are AppErrors: a missing
// binary is SERVICE_UNAVAILABLE, a non-zero exit is EXTERNAL_SERVICE_ERROR
// carrying the tail of stderr, and an expired deadline is TIMEOUT.
package process
