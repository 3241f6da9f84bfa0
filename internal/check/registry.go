package check

import (
	"fmt"
	"sort"
	"sync"

	"github.com/veris-memory/sentinel/internal/probe"
)

// Deps is everything a check factory needs to build a Check instance.
type Deps struct {
	Client  *probe.Client
	BaseURL string
}

// Factory builds one Check given shared dependencies.
type Factory func(Deps) Check

// Registry maps stable check IDs to factories. Registration is explicit
// (no reflection, no init-time side effects) — callers register from
// main.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under id. Registering the same id twice
// overwrites the previous factory.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// IDs returns every registered check ID, sorted for deterministic
// iteration order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Build instantiates the checks whose IDs are present in both the
// registry and enabledIDs (spec.md §3: "a check cannot appear in the
// active set unless its ID is present in both"). Unknown IDs in
// enabledIDs are reported, not silently dropped.
func (r *Registry) Build(deps Deps, enabledIDs []string) ([]Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	checks := make([]Check, 0, len(enabledIDs))
	var unknown []string
	for _, id := range enabledIDs {
		factory, ok := r.factories[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		checks = append(checks, factory(deps))
	}
	if len(unknown) > 0 {
		return checks, fmt.Errorf("unknown check ids in enabled set: %v", unknown)
	}
	return checks, nil
}
