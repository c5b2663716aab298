package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Builder constructs an adapter instance from a provider configuration.
type Builder func(cfg ProviderConfig) (Adapter, error)

// ErrNilBuilder is returned when registering a nil builder.
var ErrNilBuilder = errors.New("adapter builder cannot be nil")

// Resolver maps adapter identifiers to constructors. Built-in adapters are
// registered once at startup and serve the config-driven resolution path.
//
// The runtime registry (Register/Registered) is a separate extension surface
// for enumerating additional aliases; it is deliberately not consulted by
// Resolve.
type Resolver struct {
	mu       sync.RWMutex
	builtins map[string]Builder
	runtime  map[string]Builder
}

// NewResolver creates an empty resolver. Built-ins are registered by the
// application wiring, keeping this package free of adapter imports.
func NewResolver() *Resolver {
	return &Resolver{
		builtins: make(map[string]Builder),
		runtime:  make(map[string]Builder),
	}
}

// RegisterBuiltin binds an adapter identifier to its constructor on the
// config-driven resolution path.
func (r *Resolver) RegisterBuiltin(name string, builder Builder) error {
	if builder == nil {
		return ErrNilBuilder
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[normalizeAlias(name)] = builder
	return nil
}

// Resolve instantiates the adapter named by id with the given configuration.
// The identifier may be the canonical short alias ("openai") or a
// class-style name ("OpenAIAdapter"); both normalize to the same builtin.
// An unknown identifier fails with an adapter-not-found error naming the
// originally requested id.
func (r *Resolver) Resolve(id string, cfg ProviderConfig) (Adapter, error) {
	r.mu.RLock()
	builder, ok := r.builtins[normalizeAlias(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, NewAPIError(KindAdapterNotFound,
			fmt.Sprintf("adapter %q not found", id), 0, nil)
	}
	return builder(cfg)
}

// Register adds an alias to the runtime registry.
func (r *Resolver) Register(alias string, builder Builder) error {
	if builder == nil {
		return ErrNilBuilder
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtime[normalizeAlias(alias)] = builder
	return nil
}

// Registered enumerates the runtime registry's aliases, sorted.
func (r *Resolver) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aliases := make([]string, 0, len(r.runtime))
	for a := range r.runtime {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// normalizeAlias folds class-style identifiers onto their short alias:
// "OpenAIAdapter" and "openai" both normalize to "openai".
func normalizeAlias(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimSuffix(id, "Adapter")
	return strings.ToLower(id)
}
