// Package transcription defines the speech-to-text provider interface, the
// common request and response types, and the batch transcriber that turns
// a folder tree of recordings into <base>_whisper.txt files.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - transcription/whispercli: the openai-whisper command line tool
//   - transcription/openai: the OpenAI audio transcription API
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
//	p, err := reg.Create(cfg.Provider, cfg.Settings(cfg.Provider))
//
//	res, err := transcription.NewBatch(p, cfg, log).Run(ctx, root)
package transcription
