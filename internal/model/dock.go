package model

import "github.com/soyeahso/layoutdb/internal/column"

// DockData is the persisted state of one dock.
type DockData struct {
	Visible     bool    `yaml:"visible,omitempty" json:"visible,omitempty"`
	ActivePanel *string `yaml:"activePanel,omitempty" json:"activePanel,omitempty"`
	Zoom        bool    `yaml:"zoom,omitempty" json:"zoom,omitempty"`
}

// DockDataColumnCount is the number of columns a DockData occupies.
const DockDataColumnCount = 3

// ColumnCount returns DockDataColumnCount.
func (DockData) ColumnCount() int { return DockDataColumnCount }

// Bind writes visible, active panel and zoom.
func (d DockData) Bind(b *column.Binder) error {
	b.Bool(d.Visible)
	b.NullableText(d.ActivePanel)
	b.Bool(d.Zoom)
	return nil
}

// ReadDockData decodes a DockData. NULL columns fall back to false / nil.
func ReadDockData(c *column.Cursor, prefix string) (DockData, error) {
	visible, err := c.NullableBool(prefix + "_visible")
	if err != nil {
		return DockData{}, err
	}
	panel, err := c.NullableText(prefix + "_active_panel")
	if err != nil {
		return DockData{}, err
	}
	zoom, err := c.NullableBool(prefix + "_zoom")
	if err != nil {
		return DockData{}, err
	}
	return DockData{
		Visible:     visible != nil && *visible,
		ActivePanel: panel,
		Zoom:        zoom != nil && *zoom,
	}, nil
}

// DockStructure holds the three docks around the center area.
type DockStructure struct {
	Left   DockData `yaml:"left,omitempty" json:"left"`
	Right  DockData `yaml:"right,omitempty" json:"right"`
	Bottom DockData `yaml:"bottom,omitempty" json:"bottom"`
}

// DockStructureColumnCount is the number of columns a DockStructure occupies.
const DockStructureColumnCount = 3 * DockDataColumnCount

// ColumnCount returns DockStructureColumnCount.
func (DockStructure) ColumnCount() int { return DockStructureColumnCount }

// Bind writes the docks left, right, bottom. The order is part of the format.
func (d DockStructure) Bind(b *column.Binder) error {
	for _, dock := range []DockData{d.Left, d.Right, d.Bottom} {
		if err := b.Value(dock); err != nil {
			return err
		}
	}
	return nil
}

// ReadDockStructure decodes docks in left, right, bottom order.
func ReadDockStructure(c *column.Cursor) (DockStructure, error) {
	left, err := ReadDockData(c, "left_dock")
	if err != nil {
		return DockStructure{}, err
	}
	right, err := ReadDockData(c, "right_dock")
	if err != nil {
		return DockStructure{}, err
	}
	bottom, err := ReadDockData(c, "bottom_dock")
	if err != nil {
		return DockStructure{}, err
	}
	return DockStructure{Left: left, Right: right, Bottom: bottom}, nil
}
