package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Factory builds an unconfigured backend.
type Factory func(logger *slog.Logger) Engine

// DefaultBackend is used when no backend is named.
const DefaultBackend = "passthrough"

var backends = map[string]Factory{
	DefaultBackend: func(logger *slog.Logger) Engine { return NewPassthrough(logger) },
}

// Register adds a backend under name, replacing any previous one.
func Register(name string, factory Factory) {
	backends[strings.ToLower(name)] = factory
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named backend wrapped in a Guard.
func New(name string, logger *slog.Logger) (*Guard, error) {
	if name == "" {
		name = DefaultBackend
	}
	factory, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown engine backend '%s', must be one of: %s",
			name, strings.Join(Backends(), ", "))
	}
	return NewGuard(factory(logger)), nil
}
