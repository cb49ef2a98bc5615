package provider

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Provider is the base interface all backends implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from its config section.
type Factory[T Provider] func(cfg map[string]any) (T, error)

// Decode converts a config section into a typed config struct using the
// struct's mapstructure tags. Durations may be given as strings ("30s").
func Decode[C any](cfg map[string]any) (C, error) {
	var out C
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(cfg); err != nil {
		return out, fmt.Errorf("decode provider config: %w", err)
	}
	return out, nil
}
