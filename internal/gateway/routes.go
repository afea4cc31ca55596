package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/soyeahso/layoutdb/internal/layoutfile"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/store"
	"github.com/soyeahso/layoutdb/internal/version"
	"github.com/soyeahso/layoutdb/internal/workspace"
)

const defaultListLimit = 20

var errNoLocation = errors.New("one of id, remoteId or paths is required")

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("workspace.list", s.rpcList)
	s.Handle("workspace.load", s.rpcLoad)
	s.Handle("workspace.save", s.rpcSave)
	s.Handle("workspace.delete", s.rpcDelete)
	s.Handle("workspace.restore", s.rpcRestore)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Schema:   store.SchemaVersion(),
		Clients:  s.clients.Count(),
		UptimeMs: s.uptime().Milliseconds(),
	})
}

func (s *Server) rpcList(rc *RequestContext) {
	var p ListParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}

	recent, err := s.records.Recent(rc.Ctx, p.Limit)
	if err != nil {
		rc.Fail(err)
		return
	}
	out := make([]Summary, 0, len(recent))
	for _, r := range recent {
		sum := Summary{
			ID:       int64(r.ID),
			Location: r.Location.String(),
			Paths:    r.Location.Paths(),
			SavedAt:  r.SavedAt.UTC().Format(time.RFC3339),
		}
		if rp := r.Location.RemoteProject(); rp != nil {
			sum.RemoteID = uint64(rp.ID)
		}
		out = append(out, sum)
	}
	rc.Respond(map[string]any{"workspaces": out})
}

func (s *Server) rpcLoad(rc *RequestContext) {
	rec, ok := s.loadFor(rc)
	if !ok {
		return
	}
	rc.Respond(layoutfile.FromRecord(rec))
}

func (s *Server) rpcSave(rc *RequestContext) {
	var f layoutfile.File
	if err := rc.Params(&f); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	rec, err := f.Record(s.directory)
	if err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if !rec.Location.IsRemote() && len(rec.Location.Paths()) == 0 {
		rc.RespondError(CodeInvalidParams, "location needs paths or a remote project")
		return
	}

	rec, err = s.service.SaveRecord(rc.Ctx, rec)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"id": int64(rec.ID)})
}

func (s *Server) rpcDelete(rc *RequestContext) {
	var p DeleteParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.ID <= 0 {
		rc.RespondError(CodeInvalidParams, "id is required")
		return
	}
	if err := s.records.Delete(rc.Ctx, model.WorkspaceID(p.ID)); err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"id": p.ID})
}

// rpcRestore rebuilds a stored layout and returns what survived, in the
// same shape as workspace.load, plus the items that were dropped.
func (s *Server) rpcRestore(rc *RequestContext) {
	rec, ok := s.loadFor(rc)
	if !ok {
		return
	}
	restored, err := s.service.RestoreRecord(rc.Ctx, rec)
	if err != nil {
		rc.Fail(err)
		return
	}

	dropped := make([]DroppedItem, 0)
	for _, r := range restored.Tree.Failed() {
		dropped = append(dropped, DroppedItem{
			Pane:  r.PaneID,
			Index: r.Index,
			Kind:  r.Item.Kind,
			Item:  uint64(r.Item.ItemID),
			Error: r.Err.Error(),
		})
	}
	rc.Respond(map[string]any{
		"workspace":    layoutfile.FromRecord(workspace.Snapshot(restored.Workspace)),
		"dropped":      dropped,
		"droppedPanes": restored.Tree.DroppedPanes,
	})
}

// loadFor decodes LocationParams and loads the matching record. It
// responds with an error itself and reports false when that happens.
func (s *Server) loadFor(rc *RequestContext) (*model.SerializedWorkspace, bool) {
	var p LocationParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return nil, false
	}
	rec, err := s.load(rc.Ctx, p)
	if errors.Is(err, errNoLocation) || errors.Is(err, errRelativePath) {
		rc.RespondError(CodeInvalidParams, err.Error())
		return nil, false
	}
	if err != nil {
		rc.Fail(err)
		return nil, false
	}
	return rec, true
}

var errRelativePath = errors.New("paths must be absolute")

func (s *Server) load(ctx context.Context, p LocationParams) (*model.SerializedWorkspace, error) {
	switch {
	case p.ID > 0:
		return s.records.LoadByID(ctx, model.WorkspaceID(p.ID))
	case p.RemoteID > 0:
		return s.records.Load(ctx, model.Remote(model.RemoteProjectID(p.RemoteID), s.directory))
	case len(p.Paths) > 0:
		for _, path := range p.Paths {
			if !filepath.IsAbs(path) {
				return nil, fmt.Errorf("%w: %q", errRelativePath, path)
			}
		}
		return s.records.Load(ctx, model.Local(p.Paths...))
	}
	return nil, errNoLocation
}
