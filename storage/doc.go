// Package storage abstracts where corpus files live. The local backend
// serves a directory tree; the s3 backend serves a bucket, so a WER corpus
// can be scored straight from object storage.
//
// Backends register themselves on import:
//
//	import _ "github.com/kbukum/asrkit/storage/local"
//
//	store, err := storage.New(storage.Config{Provider: "local", BasePath: dir}, log)
//
// Paths are slash-separated and relative to the backend root.
//
//	storage:
//	  provider: s3
//	  bucket: asr-corpora
//	  region: eu-west-1
package storage
