// Package provider defines the uniform capability wrapping one external
// generation service, the registry of configured providers, and the adapters
// over the individual API clients.
package provider

import (
	"context"
	"sync"

	"github.com/tradeforge/stratgen/internal/model"
)

// GenerationRequest carries everything a provider needs for one call.
type GenerationRequest struct {
	Description     string
	MarketType      string
	Timeframe       string
	RiskLevel       string
	Parameters      map[string]any
	TemplateCode    string
	DialectRequired bool
	Optimize        bool
}

// Provider is the uniform capability over one external generation service.
// Implementations must be safe for concurrent use and must not retry
// internally: retry policy belongs to the orchestrator.
type Provider interface {
	// Name returns the short provider identifier used in requests.
	Name() string
	// VerifyConnection is a cheap reachability probe. It never fails hard;
	// every failure mode converts to false.
	VerifyConnection(ctx context.Context) bool
	// Generate issues a single generation call. Failures come back as a
	// discriminated *Error (auth, timeout, malformed, unavailable).
	Generate(ctx context.Context, req GenerationRequest) (*model.ModelResult, error)
}

// Registry holds the process-wide set of configured providers. It is
// populated once at startup and read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. Registration order is preserved for wildcard
// expansion.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// Names returns all registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
