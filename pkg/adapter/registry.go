package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(logger *slog.Logger) Adapter

// ErrNoAdapterType is returned by NewAdapter when the config names no type.
var ErrNoAdapterType = errors.New("adapter type not specified")

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// normalizeType folds database.type values so "Postgres" and "postgres"
// select the same adapter.
func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes an adapter available under name. It is meant to be called
// from the init function of an adapter package and panics when the name is
// taken or the factory is nil.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("adapter: Register factory is nil for " + name)
	}
	key := normalizeType(name)

	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, dup := factories[key]; dup {
		panic("adapter: Register called twice for " + key)
	}
	factories[key] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[normalizeType(name)]
	return f, ok
}

// NewAdapter builds the adapter selected by cfg.Type. The adapter is not
// connected yet.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if normalizeType(cfg.Type) == "" {
		return nil, ErrNoAdapterType
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger.With("adapter", normalizeType(cfg.Type))), nil
}

// ListAdapters returns the registered adapter names in sorted order.
func ListAdapters() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether an adapter is registered under name.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when database.type names no registered
// adapter.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s); check database.type in canvasql.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
