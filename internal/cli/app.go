package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/plugin"
	"github.com/soyeahso/layoutdb/internal/remote"
	"github.com/soyeahso/layoutdb/internal/restore"
	"github.com/soyeahso/layoutdb/internal/store"
	"github.com/soyeahso/layoutdb/internal/workspace"
)

// app bundles the components a command needs.
type app struct {
	db        *store.DB
	store     *store.WorkspaceStore
	directory *remote.Directory
	registry  *restore.Registry
	plugins   *plugin.Registry
	hooks     *hooks.Manager
	service   *workspace.Service
}

func openApp(ctx context.Context) (*app, error) {
	path := paths.DatabasePath(cfg)
	db, err := store.Open(path, log)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("workspace database opened")

	policy, err := restore.ParseFlexPolicy(cfg.Restore.FlexPolicy)
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := restore.NewRegistry()
	hookMgr := hooks.NewManager(log)
	hookMgr.RegisterCommands(cfg.Hooks)

	plugins := plugin.NewRegistry(registry, hookMgr, log)
	for _, p := range []plugin.Plugin{plugin.Placeholders(cfg.Restore.Kinds), plugin.DropLog()} {
		if err := plugins.Register(p); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := plugins.InitAll(ctx); err != nil {
		plugins.CloseAll()
		db.Close()
		return nil, err
	}

	ws := store.NewWorkspaceStore(db)
	engine := restore.NewEngine(registry, restore.Options{
		MaxConcurrentItems: cfg.Restore.MaxConcurrentItems,
		FlexPolicy:         policy,
	}, log)

	return &app{
		db:        db,
		store:     ws,
		directory: remote.NewDirectoryFromConfig(cfg.Remote, log),
		registry:  registry,
		plugins:   plugins,
		hooks:     hookMgr,
		service:   workspace.NewService(ws, engine, hookMgr, log),
	}, nil
}

func (a *app) Close() error {
	a.hooks.Wait()
	a.plugins.CloseAll()
	return a.db.Close()
}

// locationFlags selects a workspace by paths, by remote project or by id.
type locationFlags struct {
	remoteID uint64
	id       int64
}

func (f *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.remoteID, "remote", 0, "remote project id instead of local paths")
	cmd.Flags().Int64Var(&f.id, "id", 0, "workspace id instead of a location")
}

func (f *locationFlags) byID() bool {
	return f.id != 0
}

func (f *locationFlags) location(a *app, args []string) (model.Location, error) {
	if f.remoteID != 0 {
		if len(args) > 0 {
			return model.Location{}, fmt.Errorf("paths cannot be combined with --remote")
		}
		return model.Remote(model.RemoteProjectID(f.remoteID), a.directory), nil
	}
	if len(args) == 0 {
		return model.Location{}, fmt.Errorf("need at least one path, --remote or --id")
	}
	abs := make([]string, len(args))
	for i, p := range args {
		v, err := filepath.Abs(p)
		if err != nil {
			return model.Location{}, err
		}
		abs[i] = v
	}
	return model.Local(abs...), nil
}

func (f *locationFlags) load(ctx context.Context, a *app, args []string) (*model.SerializedWorkspace, error) {
	if f.byID() {
		return a.store.LoadByID(ctx, model.WorkspaceID(f.id))
	}
	loc, err := f.location(a, args)
	if err != nil {
		return nil, err
	}
	return a.store.Load(ctx, loc)
}

func parseID(s string) (model.WorkspaceID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid workspace id %q", s)
	}
	return model.WorkspaceID(n), nil
}
