package model

import (
	"fmt"

	"github.com/soyeahso/layoutdb/internal/column"
)

// ItemID identifies a persisted item, scoped to its kind and workspace.
type ItemID uint64

// Axis is the split direction of a pane group.
type Axis string

const (
	AxisHorizontal Axis = "Horizontal"
	AxisVertical   Axis = "Vertical"
)

// ParseAxis accepts the stored axis names.
func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case AxisHorizontal, AxisVertical:
		return Axis(s), nil
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// PaneGroup is a node of the center layout tree: either a *Group or a
// *SerializedPane.
type PaneGroup interface {
	paneGroup()
}

// Group splits its children along an axis. Flexes holds one weight per
// child; nil means an equal split.
type Group struct {
	Axis     Axis
	Flexes   []float32
	Children []PaneGroup
}

// SerializedPane is a leaf of the layout tree.
type SerializedPane struct {
	Active   bool
	Children []SerializedItem
}

func (*Group) paneGroup()          {}
func (*SerializedPane) paneGroup() {}

// NewPane is a convenience constructor for pane leaves.
func NewPane(active bool, items ...SerializedItem) *SerializedPane {
	return &SerializedPane{Active: active, Children: items}
}

// NewGroup is a convenience constructor for group nodes.
func NewGroup(axis Axis, flexes []float32, children ...PaneGroup) *Group {
	return &Group{Axis: axis, Flexes: flexes, Children: children}
}

// CountPanes returns the number of pane leaves under node.
func CountPanes(node PaneGroup) int {
	switch n := node.(type) {
	case *SerializedPane:
		return 1
	case *Group:
		total := 0
		for _, child := range n.Children {
			total += CountPanes(child)
		}
		return total
	}
	return 0
}

// SerializedItem is the persisted identity of one item in a pane.
type SerializedItem struct {
	Kind    string `yaml:"kind" json:"kind"`
	ItemID  ItemID `yaml:"id" json:"id"`
	Active  bool   `yaml:"active,omitempty" json:"active,omitempty"`
	Preview bool   `yaml:"preview,omitempty" json:"preview,omitempty"`
}

// SerializedItemColumnCount is the number of columns a SerializedItem occupies.
const SerializedItemColumnCount = 4

// ColumnCount returns SerializedItemColumnCount.
func (SerializedItem) ColumnCount() int { return SerializedItemColumnCount }

// Bind writes kind, item id, active, preview in that order.
func (i SerializedItem) Bind(b *column.Binder) error {
	b.Text(i.Kind)
	b.Uint64(uint64(i.ItemID))
	b.Bool(i.Active)
	b.Bool(i.Preview)
	return nil
}

// ReadSerializedItem decodes a SerializedItem from the next four columns.
func ReadSerializedItem(c *column.Cursor) (SerializedItem, error) {
	kind, err := c.Text("kind")
	if err != nil {
		return SerializedItem{}, err
	}
	id, err := c.Uint64("item_id")
	if err != nil {
		return SerializedItem{}, err
	}
	active, err := c.Bool("active")
	if err != nil {
		return SerializedItem{}, err
	}
	preview, err := c.Bool("preview")
	if err != nil {
		return SerializedItem{}, err
	}
	return SerializedItem{Kind: kind, ItemID: ItemID(id), Active: active, Preview: preview}, nil
}
