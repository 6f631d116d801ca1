package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderRegistry maps provider names to factories
type ProviderRegistry struct {
	providers map[string]ProviderFactory
	mu        sync.RWMutex
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register adds a provider factory under name
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = factory
}

// Get retrieves a factory by name
func (r *ProviderRegistry) Get(name string) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.providers[name]
	if !exists {
		return nil, InvalidRequestf("registry", "payment provider '%s' is not registered", name)
	}

	return factory, nil
}

// CreateProvider builds a fresh, uninitialized provider
func (r *ProviderRegistry) CreateProvider(name string) (Provider, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(), nil
}

// Open builds the named provider, validates conf against its schema and
// authenticates it. Missing credentials are reported as ProviderUnavailable.
func (r *ProviderRegistry) Open(ctx context.Context, name string, conf map[string]string) (Provider, error) {
	p, err := r.CreateProvider(name)
	if err != nil {
		return nil, err
	}

	if err := p.ValidateConfig(conf); err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Op: "initialize", Provider: name, Err: err}
	}

	if err := p.Initialize(ctx, conf); err != nil {
		return nil, withOp(err, "initialize", name)
	}

	return p, nil
}

// GetProviderNames returns the registered names in sorted order
func (r *ProviderRegistry) GetProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// DefaultRegistry is the process-wide registry adapters register into
var DefaultRegistry = NewProviderRegistry()

// Register registers a provider with the default registry
func Register(name string, factory ProviderFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get retrieves a provider factory from the default registry
func Get(name string) (ProviderFactory, error) {
	return DefaultRegistry.Get(name)
}

// CreateProvider creates a provider instance from the default registry
func CreateProvider(name string) (Provider, error) {
	return DefaultRegistry.CreateProvider(name)
}

// Open builds and authenticates a provider from the default registry
func Open(ctx context.Context, name string, conf map[string]string) (Provider, error) {
	return DefaultRegistry.Open(ctx, name, conf)
}

// RequiredConfigValue reads a credential that must be present and non-empty
func RequiredConfigValue(providerName string, conf map[string]string, key string) (string, error) {
	v := conf[key]
	if v == "" {
		return "", &Error{Kind: KindProviderUnavailable, Op: "initialize", Provider: providerName, Message: fmt.Sprintf("required field '%s' is missing", key)}
	}
	return v, nil
}
