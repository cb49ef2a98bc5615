// Package history records WER aggregation runs in SQLite so that earlier
// reports can be listed and compared. It implements corpus.Recorder.
package history
