// Package provider holds the named-backend registry used to select an ASR
// backend from configuration.
//
//	reg := provider.NewRegistry[transcription.Provider]()
//	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
//	p, err := reg.Create("whisper", settings)
//
// Factories receive the backend's config section as a map and decode it
// into their typed config with Decode.
package provider
