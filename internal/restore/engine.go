// Package restore rebuilds a live pane tree from a persisted layout.
//
// Sibling nodes are reconstructed one after another in document order.
// The items of a single pane are rehydrated concurrently and re-joined in
// their persisted order. Item failures drop the item, a pane left with no
// items is removed, and a group left with no children disappears.
package restore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
)

// Host is the live workspace panes are created in.
type Host interface {
	AddPane() *live.Pane
	ForceRemovePane(p *live.Pane)
}

// FlexPolicy decides the weights of a group that lost children.
type FlexPolicy string

const (
	// FlexPassthrough hands the stored weights to the axis unchanged. The
	// axis falls back to an equal split when the counts no longer match.
	FlexPassthrough FlexPolicy = "passthrough"
	// FlexRetain keeps the stored weights of the surviving children.
	FlexRetain FlexPolicy = "retain"
	// FlexEqual splits evenly whenever a child was dropped.
	FlexEqual FlexPolicy = "equal"
)

// ParseFlexPolicy accepts the configured policy names; empty means passthrough.
func ParseFlexPolicy(s string) (FlexPolicy, error) {
	switch FlexPolicy(s) {
	case "":
		return FlexPassthrough, nil
	case FlexPassthrough, FlexRetain, FlexEqual:
		return FlexPolicy(s), nil
	}
	return "", fmt.Errorf("unknown flex policy %q", s)
}

// Options tunes an Engine.
type Options struct {
	// MaxConcurrentItems caps in-flight rehydrations per pane; 0 is unlimited.
	MaxConcurrentItems int
	FlexPolicy         FlexPolicy
}

// Env carries the identities passed to every item factory.
type Env struct {
	Project     model.Location
	WorkspaceID model.WorkspaceID
}

// Result records what happened to one persisted item.
type Result struct {
	PaneID int
	Index  int
	Item   model.SerializedItem
	Live   live.Item
	Err    error
}

// Tree is the outcome of a reconstruction.
type Tree struct {
	// Member is the live center tree, nil when nothing survived.
	Member live.Member
	// ActivePane is the first pane persisted as active, in document order.
	ActivePane *live.Pane
	Results    []Result
	// DroppedPanes counts panes removed because none of their items survived.
	DroppedPanes int
}

// Failed returns the results whose item could not be rehydrated.
func (t Tree) Failed() []Result {
	var out []Result
	for _, r := range t.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Engine reconstructs persisted pane trees.
type Engine struct {
	kinds KindLookup
	opts  Options
	log   *logging.Logger
}

// NewEngine creates an engine reading factories from kinds.
func NewEngine(kinds KindLookup, opts Options, log *logging.Logger) *Engine {
	if opts.FlexPolicy == "" {
		opts.FlexPolicy = FlexPassthrough
	}
	return &Engine{kinds: kinds, opts: opts, log: log.Sub("restore")}
}

// Deserialize rebuilds node into host. A nil node is an empty center and
// creates nothing. It fails only when ctx is done, in which case every pane
// it created is removed again.
func (e *Engine) Deserialize(ctx context.Context, node model.PaneGroup, host Host, env Env) (Tree, error) {
	r := &run{engine: e, host: host, env: env}
	member, active, err := r.node(ctx, node)
	if err != nil {
		for _, p := range r.created {
			host.ForceRemovePane(p)
		}
		return Tree{}, err
	}
	return Tree{
		Member:       member,
		ActivePane:   active,
		Results:      r.results,
		DroppedPanes: r.droppedPanes,
	}, nil
}

// run holds the state of one Deserialize call.
type run struct {
	engine       *Engine
	host         Host
	env          Env
	created      []*live.Pane
	results      []Result
	droppedPanes int
}

func (r *run) node(ctx context.Context, node model.PaneGroup) (live.Member, *live.Pane, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	switch n := node.(type) {
	case *model.Group:
		if n != nil {
			return r.group(ctx, n)
		}
	case *model.SerializedPane:
		if n != nil {
			return r.pane(ctx, n)
		}
	}
	return nil, nil, nil
}

func (r *run) group(ctx context.Context, g *model.Group) (live.Member, *live.Pane, error) {
	var (
		members  []live.Member
		survived []int
		active   *live.Pane
	)
	for i, child := range g.Children {
		member, childActive, err := r.node(ctx, child)
		if err != nil {
			return nil, nil, err
		}
		if member == nil {
			continue
		}
		members = append(members, member)
		survived = append(survived, i)
		if active == nil {
			active = childActive
		}
	}

	switch len(members) {
	case 0:
		return nil, nil, nil
	case 1:
		return members[0], active, nil
	}
	flexes := r.engine.flexes(g, survived)
	return live.LoadAxis(g.Axis, members, flexes), active, nil
}

func (e *Engine) flexes(g *model.Group, survived []int) []float32 {
	if len(survived) == len(g.Children) {
		return g.Flexes
	}
	switch e.opts.FlexPolicy {
	case FlexRetain:
		if len(g.Flexes) != len(g.Children) {
			return nil
		}
		out := make([]float32, len(survived))
		for i, idx := range survived {
			out[i] = g.Flexes[idx]
		}
		return out
	case FlexEqual:
		return nil
	}
	return g.Flexes
}

func (r *run) pane(ctx context.Context, p *model.SerializedPane) (live.Member, *live.Pane, error) {
	pane := r.host.AddPane()
	r.created = append(r.created, pane)

	results := make([]Result, len(p.Children))
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		if n := r.engine.opts.MaxConcurrentItems; n > 0 {
			g.SetLimit(n)
		}
		for i, item := range p.Children {
			g.Go(func() error {
				results[i] = r.rehydrate(ctx, pane, i, item)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	positions := make(map[int]int, len(results))
	for i, res := range results {
		r.results = append(r.results, res)
		if !r.engine.log.LogErr(res.Err, "dropping item", map[string]any{
			"kind": res.Item.Kind,
			"item": uint64(res.Item.ItemID),
			"pane": pane.ID(),
		}) {
			continue
		}
		positions[i] = pane.ItemsLen()
		pane.AddItem(res.Live)
	}

	if pane.ItemsLen() == 0 {
		r.host.ForceRemovePane(pane)
		r.droppedPanes++
		r.engine.log.Debug().Int("pane", pane.ID()).Msg("dropping empty pane")
		return nil, nil, nil
	}

	if idx, ok := markedIndex(p.Children, func(it model.SerializedItem) bool { return it.Active }); ok {
		if pos, survived := positions[idx]; survived {
			pane.ActivateItem(pos)
		}
	}
	if idx, ok := markedIndex(p.Children, func(it model.SerializedItem) bool { return it.Preview }); ok {
		if pos, survived := positions[idx]; survived {
			pane.SetPreview(pos)
		}
	}

	if p.Active {
		return pane, pane, nil
	}
	return pane, nil, nil
}

func (r *run) rehydrate(ctx context.Context, pane *live.Pane, index int, item model.SerializedItem) Result {
	res := Result{PaneID: pane.ID(), Index: index, Item: item}
	factory, ok := r.engine.kinds.Lookup(item.Kind)
	if !ok {
		res.Err = fmt.Errorf("%w: %q", ErrUnknownKind, item.Kind)
		return res
	}
	it, err := factory(ctx, Request{
		Kind:        item.Kind,
		Project:     r.env.Project,
		Workspace:   r.host,
		WorkspaceID: r.env.WorkspaceID,
		ItemID:      item.ItemID,
	})
	switch {
	case err != nil:
		res.Err = fmt.Errorf("rehydrating %s %d: %w", item.Kind, item.ItemID, err)
	case it == nil:
		res.Err = fmt.Errorf("rehydrating %s %d: factory returned no item", item.Kind, item.ItemID)
	default:
		res.Live = it
	}
	return res
}

// markedIndex returns the last original index satisfying marked. A later
// mark overrides an earlier one.
func markedIndex(items []model.SerializedItem, marked func(model.SerializedItem) bool) (int, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if marked(items[i]) {
			return i, true
		}
	}
	return 0, false
}
