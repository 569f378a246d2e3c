package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/companydash/pkg/models"
)

// ErrSourceNotFound is returned when a requested source is not registered.
type ErrSourceNotFound struct {
	Name string
}

func (e *ErrSourceNotFound) Error() string {
	return fmt.Sprintf("source %q not found", e.Name)
}

// Registry is a thread-safe registry of named sources. The first source
// registered becomes the default.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	def     string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source. Duplicate registrations overwrite the previous entry.
func (r *Registry) Register(s Source) error {
	name := s.Name()
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = s
	if r.def == "" {
		r.def = name
	}
	return nil
}

// Get returns a source by name; an empty name selects the default.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.def
	}
	s, ok := r.sources[name]
	if !ok {
		return nil, &ErrSourceNotFound{Name: name}
	}
	return s, nil
}

// SetDefault makes the named source the default.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[name]; !ok {
		return &ErrSourceNotFound{Name: name}
	}
	r.def = name
	return nil
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fetch validates req and fetches it from the named source (or the default).
func (r *Registry) Fetch(ctx context.Context, name string, req Request) (*models.MarketData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	md, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("source %q fetch %s: %w", s.Name(), req.Ticker, err)
	}
	if md.FetchedAt.IsZero() {
		md.FetchedAt = time.Now()
	}
	return md, nil
}
