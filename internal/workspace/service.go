package workspace

import (
	"context"
	"fmt"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/restore"
)

// Store is the persistence the service needs.
type Store interface {
	NextID(ctx context.Context) (model.WorkspaceID, error)
	Save(ctx context.Context, ws *model.SerializedWorkspace) error
	Load(ctx context.Context, loc model.Location) (*model.SerializedWorkspace, error)
	LoadByID(ctx context.Context, id model.WorkspaceID) (*model.SerializedWorkspace, error)
}

// Restored is a rebuilt workspace plus the per-item outcomes.
type Restored struct {
	Workspace *live.Workspace
	Tree      restore.Tree
}

// Service saves and restores workspaces.
type Service struct {
	store  Store
	engine *restore.Engine
	hooks  *hooks.Manager
	log    *logging.Logger
}

// NewService creates a service. hooks may be nil.
func NewService(store Store, engine *restore.Engine, hm *hooks.Manager, log *logging.Logger) *Service {
	return &Service{store: store, engine: engine, hooks: hm, log: log.Sub("workspace")}
}

// Restore loads the record for loc and rebuilds it. Store and decode
// errors are returned as is; item failures only show up in the result.
func (s *Service) Restore(ctx context.Context, loc model.Location) (*Restored, error) {
	rec, err := s.store.Load(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("loading workspace for %s: %w", loc, err)
	}
	return s.RestoreRecord(ctx, rec)
}

// RestoreByID loads the record with id and rebuilds it.
func (s *Service) RestoreByID(ctx context.Context, id model.WorkspaceID) (*Restored, error) {
	rec, err := s.store.LoadByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading workspace %d: %w", id, err)
	}
	return s.RestoreRecord(ctx, rec)
}

// RestoreRecord rebuilds an already loaded record.
func (s *Service) RestoreRecord(ctx context.Context, rec *model.SerializedWorkspace) (*Restored, error) {
	ws := live.NewWorkspace(rec.ID, rec.Location)
	tree, err := s.engine.Deserialize(ctx, rec.Center, ws, restore.Env{
		Project:     rec.Location,
		WorkspaceID: rec.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("restoring workspace %d: %w", rec.ID, err)
	}
	Assemble(ws, rec, tree)

	failed := tree.Failed()
	for _, r := range failed {
		s.emit(ctx, hooks.ItemDropped{
			Workspace: int64(rec.ID),
			Pane:      r.PaneID,
			Index:     r.Index,
			Kind:      r.Item.Kind,
			Item:      uint64(r.Item.ItemID),
			Err:       r.Err,
		})
	}
	if tree.DroppedPanes > 0 {
		s.emit(ctx, hooks.PanesDropped{Workspace: int64(rec.ID), Count: tree.DroppedPanes})
	}

	panes := len(ws.Panes())
	s.log.Info().
		Int64("workspace", int64(rec.ID)).
		Str("location", rec.Location.String()).
		Int("panes", panes).
		Int("droppedItems", len(failed)).
		Int("droppedPanes", tree.DroppedPanes).
		Msg("workspace restored")
	s.emit(ctx, hooks.WorkspaceRestored{
		Workspace:    int64(rec.ID),
		Location:     rec.Location.String(),
		Panes:        panes,
		DroppedItems: len(failed),
		Empty:        ws.IsEmpty(),
	})
	return &Restored{Workspace: ws, Tree: tree}, nil
}

// Save persists a snapshot of ws, reserving an id first when ws has none.
func (s *Service) Save(ctx context.Context, ws *live.Workspace) (*model.SerializedWorkspace, error) {
	if ws.ID == 0 {
		id, err := s.store.NextID(ctx)
		if err != nil {
			return nil, err
		}
		ws.ID = id
	}
	return s.SaveRecord(ctx, Snapshot(ws))
}

// SaveRecord persists rec, reserving an id first when rec has none.
func (s *Service) SaveRecord(ctx context.Context, rec *model.SerializedWorkspace) (*model.SerializedWorkspace, error) {
	if rec.ID == 0 {
		id, err := s.store.NextID(ctx)
		if err != nil {
			return nil, err
		}
		rec.ID = id
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving workspace %d: %w", rec.ID, err)
	}
	s.emit(ctx, hooks.WorkspaceSaved{
		Workspace: int64(rec.ID),
		Location:  rec.Location.String(),
		Panes:     model.CountPanes(rec.Center),
	})
	return rec, nil
}

func (s *Service) emit(ctx context.Context, ev hooks.Event) {
	if s.hooks == nil {
		return
	}
	s.hooks.Emit(ctx, ev)
}
