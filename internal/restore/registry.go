package restore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/model"
)

// ErrUnknownKind is returned for items whose kind has no registered factory.
var ErrUnknownKind = errors.New("no factory registered for item kind")

// Request identifies one item to rehydrate.
type Request struct {
	Kind        string
	Project     model.Location
	Workspace   Host
	WorkspaceID model.WorkspaceID
	ItemID      model.ItemID
}

// ItemFactory rehydrates a persisted item into a live item.
type ItemFactory func(ctx context.Context, req Request) (live.Item, error)

// KindLookup resolves item kinds to factories. The engine only reads through it.
type KindLookup interface {
	Lookup(kind string) (ItemFactory, bool)
}

// Registry maps item kinds to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ItemFactory
}

var _ KindLookup = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ItemFactory)}
}

// Register adds a factory for kind. Registering a kind twice is an error.
func (r *Registry) Register(kind string, f ItemFactory) error {
	if kind == "" {
		return errors.New("item kind must not be empty")
	}
	if f == nil {
		return fmt.Errorf("nil factory for kind %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Lookup returns the factory registered for kind.
func (r *Registry) Lookup(kind string) (ItemFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
