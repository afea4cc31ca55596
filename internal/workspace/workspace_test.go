package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/restore"
	"github.com/soyeahso/layoutdb/internal/store"
)

type testItem struct {
	kind string
	id   model.ItemID
}

func (i testItem) Kind() string         { return i.kind }
func (i testItem) ItemID() model.ItemID { return i.id }

type fixture struct {
	store   *store.WorkspaceStore
	service *Service
	hooks   *hooks.Manager
	failing map[model.ItemID]bool

	mu     sync.Mutex
	events []hooks.Payload
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		store:   store.NewWorkspaceStore(db),
		hooks:   hooks.NewManager(log),
		failing: map[model.ItemID]bool{},
	}

	reg := restore.NewRegistry()
	factory := func(_ context.Context, req restore.Request) (live.Item, error) {
		if f.failing[req.ItemID] {
			return nil, errors.New("gone")
		}
		return testItem{kind: req.Kind, id: req.ItemID}, nil
	}
	require.NoError(t, reg.Register("Editor", factory))
	require.NoError(t, reg.Register("Terminal", factory))

	for _, event := range hooks.AllEvents {
		f.hooks.On(event, "record", func(_ context.Context, p hooks.Payload) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, p)
			return nil
		})
	}

	engine := restore.NewEngine(reg, restore.Options{}, log)
	f.service = NewService(f.store, engine, f.hooks, log)
	return f
}

func (f *fixture) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, e := range f.events {
		names = append(names, e.Event)
	}
	return names
}

func strPtr(s string) *string { return &s }

func record(loc model.Location, center model.PaneGroup) *model.SerializedWorkspace {
	display := uuid.MustParse("0b7f2d4e-1c3a-4f5b-8d6e-7a8b9c0d1e2f")
	return &model.SerializedWorkspace{
		Location:   loc,
		Center:     center,
		Bounds:     &model.Bounds{X: 1, Y: 2, Width: 800, Height: 600},
		Fullscreen: true,
		Display:    &display,
		Docks: model.DockStructure{
			Left:  model.DockData{Visible: true, ActivePanel: strPtr("ProjectPanel")},
			Right: model.DockData{Zoom: true},
		},
	}
}

func editor(id model.ItemID, active bool) model.SerializedItem {
	return model.SerializedItem{Kind: "Editor", ItemID: id, Active: active}
}

func TestRestore_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loc := model.Local("/src/app")

	rec := record(loc, model.NewGroup(model.AxisHorizontal, []float32{2, 1},
		model.NewPane(false, editor(1, false), editor(2, true)),
		model.NewPane(true, model.SerializedItem{Kind: "Terminal", ItemID: 7, Active: true, Preview: true}),
	))
	saved, err := f.service.SaveRecord(ctx, rec)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	restored, err := f.service.Restore(ctx, loc)
	require.NoError(t, err)
	ws := restored.Workspace

	assert.Equal(t, saved.ID, ws.ID)
	assert.True(t, ws.Location.Equal(loc))
	assert.Equal(t, rec.Docks, ws.Docks)
	assert.Equal(t, rec.Bounds, ws.Bounds)
	assert.True(t, ws.Fullscreen)
	assert.Equal(t, rec.Display, ws.Display)

	axis, ok := ws.Center.(*live.Axis)
	require.True(t, ok)
	assert.Equal(t, []float32{2, 1}, axis.Flexes)
	require.Len(t, axis.Members, 2)

	require.NotNil(t, ws.ActivePane)
	assert.Same(t, axis.Members[1], live.Member(ws.ActivePane))

	first := axis.Members[0].(*live.Pane)
	item, ok := first.ActiveItem()
	require.True(t, ok)
	assert.Equal(t, model.ItemID(2), item.ItemID())

	preview, ok := ws.ActivePane.PreviewItemID()
	require.True(t, ok)
	assert.Equal(t, model.ItemID(7), preview)

	assert.Equal(t, []string{hooks.EventWorkspaceSaved, hooks.EventWorkspaceRestored}, f.eventNames())
}

func TestRestore_SnapshotSaveRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loc := model.Local("/a", "/b")

	_, err := f.service.SaveRecord(ctx, record(loc, model.NewGroup(model.AxisVertical, nil,
		model.NewPane(true, editor(1, true)),
		model.NewGroup(model.AxisHorizontal, []float32{1, 3},
			model.NewPane(false, editor(2, false), editor(3, true)),
			model.NewPane(false, editor(4, false)),
		),
	)))
	require.NoError(t, err)

	first, err := f.service.Restore(ctx, loc)
	require.NoError(t, err)

	_, err = f.service.Save(ctx, first.Workspace)
	require.NoError(t, err)

	second, err := f.service.Restore(ctx, loc)
	require.NoError(t, err)

	assert.Equal(t, Snapshot(first.Workspace), Snapshot(second.Workspace))
}

func TestRestore_EmptyCenterKeepsDocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loc := model.Local("/empty")
	f.failing[1] = true
	f.failing[2] = true

	rec := record(loc, model.NewGroup(model.AxisHorizontal, nil,
		model.NewPane(true, editor(1, true)),
		model.NewPane(false, editor(2, false)),
	))
	_, err := f.service.SaveRecord(ctx, rec)
	require.NoError(t, err)

	restored, err := f.service.Restore(ctx, loc)
	require.NoError(t, err)
	ws := restored.Workspace

	assert.True(t, ws.IsEmpty())
	assert.Nil(t, ws.ActivePane)
	assert.Empty(t, ws.Panes())
	assert.Equal(t, rec.Docks, ws.Docks)
	assert.Equal(t, rec.Bounds, ws.Bounds)

	names := f.eventNames()
	assert.Equal(t, 2, countOf(names, hooks.EventItemDropped))
	assert.Equal(t, 1, countOf(names, hooks.EventPaneDropped))
	assert.Equal(t, hooks.EventWorkspaceRestored, names[len(names)-1])
}

func TestRestore_SavedEmptyWorkspaceDropsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := live.NewWorkspace(0, model.Local("/blank"))
	ws.Docks.Left = model.DockData{Visible: true}

	_, err := f.service.Save(ctx, ws)
	require.NoError(t, err)

	restored, err := f.service.Restore(ctx, model.Local("/blank"))
	require.NoError(t, err)
	assert.True(t, restored.Workspace.IsEmpty())
	assert.Empty(t, restored.Workspace.Panes())
	assert.Zero(t, restored.Tree.DroppedPanes)
	assert.True(t, restored.Workspace.Docks.Left.Visible)

	names := f.eventNames()
	assert.Zero(t, countOf(names, hooks.EventPaneDropped))
	assert.Equal(t, []string{hooks.EventWorkspaceSaved, hooks.EventWorkspaceRestored}, names)
}

func TestSnapshot_PreviewByPosition(t *testing.T) {
	ws := live.NewWorkspace(3, model.Local("/p"))
	p := ws.AddPane()
	p.AddItem(testItem{"Editor", 4})
	p.AddItem(testItem{"Terminal", 4})
	p.SetPreview(1)
	ws.Center = p

	rec := Snapshot(ws)
	assert.Equal(t, model.NewPane(false,
		model.SerializedItem{Kind: "Editor", ItemID: 4},
		model.SerializedItem{Kind: "Terminal", ItemID: 4, Preview: true},
	), rec.Center)
}

func TestRestore_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loc := model.Local("/partial")
	f.failing[2] = true

	_, err := f.service.SaveRecord(ctx, record(loc, model.NewGroup(model.AxisHorizontal, nil,
		model.NewPane(false, editor(1, false)),
		model.NewPane(false, editor(2, true)),
		model.NewPane(false, editor(3, false)),
	)))
	require.NoError(t, err)

	restored, err := f.service.Restore(ctx, loc)
	require.NoError(t, err)

	axis := restored.Workspace.Center.(*live.Axis)
	require.Len(t, axis.Members, 2)
	assert.Equal(t, model.ItemID(1), axis.Members[0].(*live.Pane).Items()[0].ItemID())
	assert.Equal(t, model.ItemID(3), axis.Members[1].(*live.Pane).Items()[0].ItemID())
	assert.Len(t, restored.Tree.Failed(), 1)
}

func TestRestore_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Restore(context.Background(), model.Local("/nowhere"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.eventNames())
}

func TestRestoreByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved, err := f.service.SaveRecord(ctx, record(model.Local("/x"), model.NewPane(true, editor(1, true))))
	require.NoError(t, err)

	restored, err := f.service.RestoreByID(ctx, saved.ID)
	require.NoError(t, err)
	pane, ok := restored.Workspace.Center.(*live.Pane)
	require.True(t, ok)
	assert.Same(t, pane, restored.Workspace.ActivePane)
}

func TestRestore_Canceled(t *testing.T) {
	f := newFixture(t)
	rec := record(model.Local("/c"), model.NewPane(false, editor(1, false)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.RestoreRecord(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSave_ReservesID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ws := live.NewWorkspace(0, model.Local("/new"))
	p := ws.AddPane()
	p.AddItem(testItem{kind: "Editor", id: 3})
	ws.Center = p

	rec, err := f.service.Save(ctx, ws)
	require.NoError(t, err)
	assert.NotZero(t, ws.ID)
	assert.Equal(t, ws.ID, rec.ID)

	loaded, err := f.store.Load(ctx, model.Local("/new"))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
}

func TestSnapshot(t *testing.T) {
	ws := live.NewWorkspace(5, model.Local("/s"))
	a, b := ws.AddPane(), ws.AddPane()
	a.AddItem(testItem{"Editor", 1})
	a.AddItem(testItem{"Editor", 2})
	a.ActivateItem(1)
	b.AddItem(testItem{"Terminal", 9})
	b.SetPreview(0)
	ws.Center = live.LoadAxis(model.AxisVertical, []live.Member{a, b}, []float32{1, 2})
	ws.ActivePane = b
	ws.Docks.Bottom = model.DockData{Visible: true}

	rec := Snapshot(ws)
	assert.Equal(t, model.WorkspaceID(5), rec.ID)
	assert.Equal(t, model.NewGroup(model.AxisVertical, []float32{1, 2},
		model.NewPane(false, editor(1, false), editor(2, true)),
		model.NewPane(true, model.SerializedItem{Kind: "Terminal", ItemID: 9, Preview: true}),
	), rec.Center)
	assert.True(t, rec.Docks.Bottom.Visible)
}

func TestSnapshot_EmptyWorkspace(t *testing.T) {
	rec := Snapshot(live.NewWorkspace(1, model.Local("/e")))
	assert.Nil(t, rec.Center)
}

func TestAssemble_IgnoresActivePaneWithoutCenter(t *testing.T) {
	ws := live.NewWorkspace(1, model.Local())
	stray := ws.AddPane()
	Assemble(ws, &model.SerializedWorkspace{}, restore.Tree{ActivePane: stray})
	assert.Nil(t, ws.ActivePane)
	assert.True(t, ws.IsEmpty())
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
