// Package workspace ties the store, the reconstruction engine and the hook
// manager together to save and restore complete workspaces.
package workspace

import (
	"slices"

	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/restore"
)

// Assemble fills ws from a reconstructed center tree and the record's
// dock and window state. A nil tree member leaves an empty center area.
func Assemble(ws *live.Workspace, rec *model.SerializedWorkspace, tree restore.Tree) *live.Workspace {
	ws.Center = tree.Member
	ws.ActivePane = nil
	if tree.Member != nil {
		ws.ActivePane = tree.ActivePane
	}
	ws.Docks = cloneDocks(rec.Docks)
	if rec.Bounds != nil {
		b := *rec.Bounds
		ws.Bounds = &b
	}
	ws.Fullscreen = rec.Fullscreen
	if rec.Display != nil {
		d := *rec.Display
		ws.Display = &d
	}
	return ws
}

// Snapshot captures the persisted form of a live workspace.
func Snapshot(ws *live.Workspace) *model.SerializedWorkspace {
	rec := &model.SerializedWorkspace{
		ID:         ws.ID,
		Location:   ws.Location,
		Center:     snapshotMember(ws.Center, ws.ActivePane),
		Fullscreen: ws.Fullscreen,
		Docks:      cloneDocks(ws.Docks),
	}
	if ws.Bounds != nil {
		b := *ws.Bounds
		rec.Bounds = &b
	}
	if ws.Display != nil {
		d := *ws.Display
		rec.Display = &d
	}
	return rec
}

func snapshotMember(m live.Member, active *live.Pane) model.PaneGroup {
	switch n := m.(type) {
	case *live.Pane:
		return snapshotPane(n, n == active)
	case *live.Axis:
		g := &model.Group{Axis: n.Axis, Flexes: slices.Clone(n.Flexes)}
		for _, child := range n.Members {
			if node := snapshotMember(child, active); node != nil {
				g.Children = append(g.Children, node)
			}
		}
		return g
	}
	return nil
}

func snapshotPane(p *live.Pane, active bool) *model.SerializedPane {
	activeIdx, previewIdx := p.ActiveIndex(), p.PreviewIndex()
	out := &model.SerializedPane{Active: active}
	for i, it := range p.Items() {
		out.Children = append(out.Children, model.SerializedItem{
			Kind:    it.Kind(),
			ItemID:  it.ItemID(),
			Active:  i == activeIdx,
			Preview: i == previewIdx,
		})
	}
	return out
}

func cloneDocks(d model.DockStructure) model.DockStructure {
	clone := func(dd model.DockData) model.DockData {
		if dd.ActivePanel != nil {
			s := *dd.ActivePanel
			dd.ActivePanel = &s
		}
		return dd
	}
	return model.DockStructure{Left: clone(d.Left), Right: clone(d.Right), Bottom: clone(d.Bottom)}
}
