package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/layoutdb/internal/model"
)

type stubItem struct {
	kind string
	id   model.ItemID
}

func (s stubItem) Kind() string         { return s.kind }
func (s stubItem) ItemID() model.ItemID { return s.id }

func TestPane_Items(t *testing.T) {
	ws := NewWorkspace(1, model.Local("/a"))
	p := ws.AddPane()

	p.AddItem(stubItem{"Editor", 1})
	p.AddItem(stubItem{"Editor", 2})

	assert.Equal(t, 2, p.ItemsLen())
	assert.Equal(t, -1, p.ActiveIndex(), "adding items does not activate them")
	_, ok := p.ActiveItem()
	assert.False(t, ok)

	p.ActivateItem(1)
	item, ok := p.ActiveItem()
	require.True(t, ok)
	assert.Equal(t, model.ItemID(2), item.ItemID())

	p.ActivateItem(7)
	assert.Equal(t, 1, p.ActiveIndex(), "out of range activation is ignored")

	_, ok = p.ItemForIndex(2)
	assert.False(t, ok)
}

func TestPane_Preview(t *testing.T) {
	p := NewWorkspace(1, model.Local()).AddPane()
	p.AddItem(stubItem{"Editor", 5})
	p.AddItem(stubItem{"Terminal", 5})
	_, ok := p.PreviewItemID()
	assert.False(t, ok)
	assert.Equal(t, -1, p.PreviewIndex())

	p.SetPreview(1)
	got, ok := p.PreviewItemID()
	require.True(t, ok)
	assert.Equal(t, model.ItemID(5), got)
	assert.Equal(t, 1, p.PreviewIndex())

	p.SetPreview(4)
	assert.Equal(t, 1, p.PreviewIndex(), "out of range preview is ignored")

	p.SetPreview(-1)
	_, ok = p.PreviewItemID()
	assert.False(t, ok)
}

func TestWorkspace_AddAndRemovePanes(t *testing.T) {
	ws := NewWorkspace(1, model.Local("/a"))
	a := ws.AddPane()
	b := ws.AddPane()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, []*Pane{a, b}, ws.Panes())

	ws.ActivePane = a
	ws.ForceRemovePane(a)
	assert.Equal(t, []*Pane{b}, ws.Panes())
	assert.Nil(t, ws.ActivePane)
}

func TestLoadAxis_Flexes(t *testing.T) {
	ws := NewWorkspace(1, model.Local())
	members := []Member{ws.AddPane(), ws.AddPane()}

	axis := LoadAxis(model.AxisVertical, members, []float32{1, 3})
	assert.Equal(t, []float32{1, 3}, axis.Flexes)

	axis = LoadAxis(model.AxisVertical, members, nil)
	assert.Equal(t, []float32{1, 1}, axis.Flexes)

	axis = LoadAxis(model.AxisVertical, members, []float32{1, 2, 3})
	assert.Equal(t, []float32{1, 1}, axis.Flexes, "mismatched weights fall back to equal split")
}

func TestPanes_DocumentOrder(t *testing.T) {
	ws := NewWorkspace(1, model.Local())
	a, b, c := ws.AddPane(), ws.AddPane(), ws.AddPane()
	tree := LoadAxis(model.AxisHorizontal, []Member{
		a,
		LoadAxis(model.AxisVertical, []Member{b, c}, nil),
	}, nil)

	assert.Equal(t, []*Pane{a, b, c}, Panes(tree))
	assert.Nil(t, Panes(nil))
}
