// Package hooks notifies in-process listeners and configured shell commands
// about saved and restored workspaces and about what a restore dropped.
package hooks

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/layoutdb/internal/logging"
)

// Event names for the hook system.
const (
	EventWorkspaceSaved    = "workspace_saved"
	EventWorkspaceRestored = "workspace_restored"
	EventItemDropped       = "item_dropped"
	EventPaneDropped       = "pane_dropped"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventWorkspaceSaved,
	EventWorkspaceRestored,
	EventItemDropped,
	EventPaneDropped,
}

// Event is one notification. Fields become the payload data.
type Event interface {
	Name() string
	Fields() map[string]any
}

// WorkspaceSaved is emitted after a record was written.
type WorkspaceSaved struct {
	Workspace int64
	Location  string
	Panes     int
}

func (WorkspaceSaved) Name() string { return EventWorkspaceSaved }

func (e WorkspaceSaved) Fields() map[string]any {
	return map[string]any{
		"workspace": e.Workspace,
		"location":  e.Location,
		"panes":     e.Panes,
	}
}

// WorkspaceRestored is emitted once a record has been rebuilt.
type WorkspaceRestored struct {
	Workspace    int64
	Location     string
	Panes        int
	DroppedItems int
	Empty        bool
}

func (WorkspaceRestored) Name() string { return EventWorkspaceRestored }

func (e WorkspaceRestored) Fields() map[string]any {
	return map[string]any{
		"workspace":    e.Workspace,
		"location":     e.Location,
		"panes":        e.Panes,
		"droppedItems": e.DroppedItems,
		"empty":        e.Empty,
	}
}

// ItemDropped is emitted for every item a restore could not rehydrate.
type ItemDropped struct {
	Workspace int64
	Pane      int
	Index     int
	Kind      string
	Item      uint64
	Err       error
}

func (ItemDropped) Name() string { return EventItemDropped }

func (e ItemDropped) Fields() map[string]any {
	f := map[string]any{
		"workspace": e.Workspace,
		"pane":      e.Pane,
		"index":     e.Index,
		"kind":      e.Kind,
		"item":      e.Item,
	}
	if e.Err != nil {
		f["error"] = e.Err.Error()
	}
	return f
}

// PanesDropped is emitted when a restore removed panes left without items.
type PanesDropped struct {
	Workspace int64
	Count     int
}

func (PanesDropped) Name() string { return EventPaneDropped }

func (e PanesDropped) Fields() map[string]any {
	return map[string]any{
		"workspace": e.Workspace,
		"count":     e.Count,
	}
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager keeps the handlers per event and dispatches events to them.
//
// Inline handlers run on the emitting goroutine in registration order.
// Detached handlers each get their own goroutine and a context that
// outlives the emitter's cancellation; Wait blocks until they are done.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	pending  sync.WaitGroup
	log      *logging.Logger
}

type namedHandler struct {
	name     string
	handler  Handler
	detached bool
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers an inline handler for event.
func (m *Manager) On(event, name string, handler Handler) {
	m.add(event, namedHandler{name: name, handler: handler})
}

// OnDetached registers a handler that must not hold up the emitter.
func (m *Manager) OnDetached(event, name string, handler Handler) {
	m.add(event, namedHandler{name: name, handler: handler, detached: true})
}

func (m *Manager) add(event string, h namedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
	m.log.Debug().Str("event", event).Str("handler", h.name).Bool("detached", h.detached).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = slices.DeleteFunc(slices.Clone(m.handlers[event]), func(h namedHandler) bool {
		return h.name == name
	})
}

// Emit dispatches ev. It returns once every inline handler has run; handler
// errors are logged and never stop the others.
func (m *Manager) Emit(ctx context.Context, ev Event) {
	m.mu.RLock()
	handlers := slices.Clone(m.handlers[ev.Name()])
	m.mu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: ev.Name(), Data: ev.Fields()}
	for _, h := range handlers {
		if !h.detached {
			m.call(ctx, h, payload)
			continue
		}
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			m.call(context.WithoutCancel(ctx), h, payload)
		}()
	}
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Bool("detached", h.detached).
			Msg("hook handler error")
	}
}

// Wait blocks until every detached handler started so far has returned.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the sorted names of events with at least one handler.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}
