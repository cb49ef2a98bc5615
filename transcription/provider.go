package transcription

import (
	"context"

	"github.com/kbukum/asrkit/provider"
)

// Provider is the interface that transcription backends implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe transcribes one audio file. Segments are ordered by start time.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}
