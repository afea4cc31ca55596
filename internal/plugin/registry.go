package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/restore"
)

// Registry manages plugin lifecycle.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string // registration order
	inited  int      // plugins in order[:inited] have been initialized
	kinds   *restore.Registry
	hooks   *hooks.Manager
	log     *logging.Logger
}

// NewRegistry creates a plugin registry that hands kinds and hm to plugins.
func NewRegistry(kinds *restore.Registry, hm *hooks.Manager, log *logging.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		kinds:   kinds,
		hooks:   hm,
		log:     log.Sub("plugins"),
	}
}

// Register adds a plugin without initializing it.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[p.ID()]; exists {
		return fmt.Errorf("plugin already registered: %s", p.ID())
	}
	r.plugins[p.ID()] = p
	r.order = append(r.order, p.ID())

	r.log.Debug().
		Str("id", p.ID()).
		Str("name", p.Name()).
		Str("version", p.Version()).
		Msg("plugin registered")
	return nil
}

// InitAll initializes plugins in registration order and stops at the first
// failure. Plugins initialized before the failure are still closed by CloseAll.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order[r.inited:] {
		api := API{Kinds: r.kinds, Hooks: r.hooks, Log: r.log.Sub(id)}
		if err := r.plugins[id].Init(ctx, api); err != nil {
			return fmt.Errorf("init plugin %s: %w", id, err)
		}
		r.inited++
		r.log.Debug().Str("id", id).Msg("plugin initialized")
	}
	return nil
}

// CloseAll closes initialized plugins in reverse order.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := r.inited - 1; i >= 0; i-- {
		id := r.order[i]
		if err := r.plugins[id].Close(); err != nil {
			r.log.Error().Err(err).Str("id", id).Msg("plugin close error")
		}
	}
	r.inited = 0
}

// Get returns a plugin by id, or nil.
func (r *Registry) Get(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[id]
}

// List returns plugin ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Info summarizes the registered plugins.
func (r *Registry) Info() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		p := r.plugins[id]
		infos = append(infos, Info{ID: p.ID(), Name: p.Name(), Version: p.Version()})
	}
	return infos
}

// Info holds summary data about a plugin.
type Info struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}
