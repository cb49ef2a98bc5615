package storage

import (
	"sync"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
)

// Factory creates a Storage from config.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend. Backend packages call it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates the Storage selected by cfg.Provider. The backend package must
// be imported so its factory is registered.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.InvalidInput("storage.provider", "storage provider "+cfg.Provider+" not registered")
	}

	l := log.WithComponent("storage")
	l.Debug("initializing storage", logger.Fields(logger.FieldProvider, cfg.Provider))
	return f(cfg, l)
}
