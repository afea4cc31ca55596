// Package live holds the in-memory object graph a restored workspace is
// rebuilt into: panes holding items, arranged in axis containers.
//
// It stands in for the windowing layer; only identities cross into the
// persisted record.
package live

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/soyeahso/layoutdb/internal/model"
)

// Item is a rehydrated item handle.
type Item interface {
	Kind() string
	ItemID() model.ItemID
}

// Member is a node of the live center tree: a *Pane or an *Axis.
type Member interface {
	member()
}

// Pane holds an ordered list of items with at most one active and one preview item.
type Pane struct {
	mu      sync.Mutex
	id      int
	items   []Item
	active  int
	preview int
}

func (*Pane) member() {}

// ID returns the pane id, unique within its workspace.
func (p *Pane) ID() int {
	return p.id
}

// AddItem appends an item without activating it.
func (p *Pane) AddItem(item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
}

// ItemsLen returns the number of items.
func (p *Pane) ItemsLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Items returns a copy of the items in order.
func (p *Pane) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

// ItemForIndex returns the item at index.
func (p *Pane) ItemForIndex(index int) (Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.items) {
		return nil, false
	}
	return p.items[index], true
}

// ActivateItem makes the item at index active. Out of range is ignored.
func (p *Pane) ActivateItem(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index >= 0 && index < len(p.items) {
		p.active = index
	}
}

// ActiveIndex returns the active item index, or -1.
func (p *Pane) ActiveIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// ActiveItem returns the active item, if any.
func (p *Pane) ActiveItem() (Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active < 0 || p.active >= len(p.items) {
		return nil, false
	}
	return p.items[p.active], true
}

// SetPreview marks the item at index as the preview item; a negative index
// clears it. Out of range is ignored.
func (p *Pane) SetPreview(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < len(p.items) {
		p.preview = max(index, -1)
	}
}

// PreviewIndex returns the preview item index, or -1.
func (p *Pane) PreviewIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preview
}

// PreviewItemID returns the id of the preview item, if any.
func (p *Pane) PreviewItemID() (model.ItemID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.preview < 0 || p.preview >= len(p.items) {
		return 0, false
	}
	return p.items[p.preview].ItemID(), true
}

// Axis arranges members along a split direction with per-member flex weights.
type Axis struct {
	Axis    model.Axis
	Members []Member
	Flexes  []float32
}

func (*Axis) member() {}

// LoadAxis builds an axis container. Flexes that are missing or do not
// line up one-to-one with members fall back to an equal split.
func LoadAxis(axis model.Axis, members []Member, flexes []float32) *Axis {
	if len(flexes) != len(members) {
		flexes = EqualFlexes(len(members))
	} else {
		flexes = slices.Clone(flexes)
	}
	return &Axis{Axis: axis, Members: members, Flexes: flexes}
}

// EqualFlexes returns n weights of 1.
func EqualFlexes(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Panes returns the panes under m in document order.
func Panes(m Member) []*Pane {
	switch n := m.(type) {
	case *Pane:
		return []*Pane{n}
	case *Axis:
		var out []*Pane
		for _, child := range n.Members {
			out = append(out, Panes(child)...)
		}
		return out
	}
	return nil
}

// Workspace owns the panes of one restored workspace.
type Workspace struct {
	mu       sync.Mutex
	ID       model.WorkspaceID
	Location model.Location

	panes      []*Pane
	nextPaneID int

	Center     Member
	ActivePane *Pane
	Docks      model.DockStructure
	Bounds     *model.Bounds
	Fullscreen bool
	Display    *uuid.UUID
}

// NewWorkspace returns an empty workspace.
func NewWorkspace(id model.WorkspaceID, loc model.Location) *Workspace {
	return &Workspace{ID: id, Location: loc}
}

// AddPane creates a new empty pane attached to the workspace.
func (w *Workspace) AddPane() *Pane {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextPaneID++
	p := &Pane{id: w.nextPaneID, active: -1, preview: -1}
	w.panes = append(w.panes, p)
	return p
}

// ForceRemovePane detaches a pane from the workspace.
func (w *Workspace) ForceRemovePane(p *Pane) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.panes = slices.DeleteFunc(w.panes, func(q *Pane) bool { return q == p })
	if w.ActivePane == p {
		w.ActivePane = nil
	}
}

// Panes returns the attached panes in creation order.
func (w *Workspace) Panes() []*Pane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.panes)
}

// IsEmpty reports whether the center area has no content.
func (w *Workspace) IsEmpty() bool {
	return w.Center == nil
}
