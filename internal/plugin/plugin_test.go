package plugin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/restore"
)

type testPlugin struct {
	id         string
	initErr    error
	closeErr   error
	initCalls  int
	closeCalls int
	closed     *[]string
}

func (p *testPlugin) ID() string      { return p.id }
func (p *testPlugin) Name() string    { return "Plugin " + p.id }
func (p *testPlugin) Version() string { return "1.0" }
func (p *testPlugin) Init(_ context.Context, _ API) error {
	p.initCalls++
	return p.initErr
}
func (p *testPlugin) Close() error {
	p.closeCalls++
	if p.closed != nil {
		*p.closed = append(*p.closed, p.id)
	}
	return p.closeErr
}

func testRegistry() (*Registry, *restore.Registry, *hooks.Manager) {
	log := logging.New(nil, "silent")
	kinds := restore.NewRegistry()
	hm := hooks.NewManager(log)
	return NewRegistry(kinds, hm, log), kinds, hm
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg, _, _ := testRegistry()

	require.NoError(t, reg.Register(&testPlugin{id: "a"}))
	require.NoError(t, reg.Register(&testPlugin{id: "b"}))
	err := reg.Register(&testPlugin{id: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Equal(t, 2, reg.Count())
	assert.Equal(t, []string{"a", "b"}, reg.List())
	assert.Equal(t, "a", reg.Get("a").ID())
	assert.Nil(t, reg.Get("missing"))
	assert.Equal(t, []Info{
		{ID: "a", Name: "Plugin a", Version: "1.0"},
		{ID: "b", Name: "Plugin b", Version: "1.0"},
	}, reg.Info())
}

func TestRegistry_InitAndCloseOrder(t *testing.T) {
	reg, _, _ := testRegistry()
	var closed []string
	a := &testPlugin{id: "a", closed: &closed}
	b := &testPlugin{id: "b", closed: &closed}
	reg.Register(a)
	reg.Register(b)

	require.NoError(t, reg.InitAll(context.Background()))
	require.NoError(t, reg.InitAll(context.Background()), "second call has nothing left to init")
	assert.Equal(t, 1, a.initCalls)
	assert.Equal(t, 1, b.initCalls)

	reg.CloseAll()
	assert.Equal(t, []string{"b", "a"}, closed)
	reg.CloseAll()
	assert.Equal(t, 1, a.closeCalls, "closing twice does not close again")
}

func TestRegistry_InitFailureClosesOnlyInitialized(t *testing.T) {
	reg, _, _ := testRegistry()
	var closed []string
	ok := &testPlugin{id: "ok", closed: &closed}
	bad := &testPlugin{id: "bad", initErr: errors.New("boom"), closed: &closed}
	never := &testPlugin{id: "never", closed: &closed}
	reg.Register(ok)
	reg.Register(bad)
	reg.Register(never)

	err := reg.InitAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 0, never.initCalls)

	reg.CloseAll()
	assert.Equal(t, []string{"ok"}, closed)
}

func TestPlaceholders(t *testing.T) {
	reg, kinds, _ := testRegistry()
	require.NoError(t, reg.Register(Placeholders([]string{"Editor", "Terminal"})))
	require.NoError(t, reg.InitAll(context.Background()))

	assert.Equal(t, []string{"Editor", "Terminal"}, kinds.Kinds())

	factory, ok := kinds.Lookup("Terminal")
	require.True(t, ok)
	item, err := factory(context.Background(), restore.Request{Kind: "Terminal", ItemID: 9})
	require.NoError(t, err)
	assert.Equal(t, "Terminal", item.Kind())
	assert.Equal(t, model.ItemID(9), item.ItemID())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = factory(ctx, restore.Request{Kind: "Terminal", ItemID: 9})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlaceholders_DuplicateKind(t *testing.T) {
	reg, _, _ := testRegistry()
	require.NoError(t, reg.Register(Placeholders([]string{"Editor", "Editor"})))

	err := reg.InitAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `kind "Editor"`)
}

func TestDropLog(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "warn")
	hm := hooks.NewManager(log)
	reg := NewRegistry(restore.NewRegistry(), hm, log)
	require.NoError(t, reg.Register(DropLog()))
	require.NoError(t, reg.InitAll(context.Background()))

	assert.Equal(t, 1, hm.Count(hooks.EventItemDropped))
	hm.Emit(context.Background(), hooks.ItemDropped{Kind: "Terminal", Item: 3})
	assert.Contains(t, buf.String(), `"message":"item dropped"`)
	assert.Contains(t, buf.String(), `"kind":"Terminal"`)

	reg.CloseAll()
	assert.Equal(t, 0, hm.Count(hooks.EventItemDropped))
	assert.Equal(t, 0, hm.Count(hooks.EventPaneDropped))
}
