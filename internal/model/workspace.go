package model

import (
	"github.com/google/uuid"

	"github.com/soyeahso/layoutdb/internal/column"
)

// WorkspaceID identifies a persisted workspace record.
type WorkspaceID int64

// Bounds is a window rectangle in device pixels.
type Bounds struct {
	X      int32 `yaml:"x" json:"x"`
	Y      int32 `yaml:"y" json:"y"`
	Width  int32 `yaml:"width" json:"width"`
	Height int32 `yaml:"height" json:"height"`
}

// BoundsColumnCount is the number of columns optional bounds occupy.
const BoundsColumnCount = 4

// BindBounds writes x, y, width, height, or four NULLs when b is nil.
func BindBounds(binder *column.Binder, b *Bounds) {
	if b == nil {
		for range BoundsColumnCount {
			binder.Null()
		}
		return
	}
	binder.Int64(int64(b.X))
	binder.Int64(int64(b.Y))
	binder.Int64(int64(b.Width))
	binder.Int64(int64(b.Height))
}

// ReadBounds decodes optional bounds. Any NULL column yields nil.
func ReadBounds(c *column.Cursor) (*Bounds, error) {
	fields := [BoundsColumnCount]string{"window_x", "window_y", "window_width", "window_height"}
	var vals [BoundsColumnCount]*int32
	for i, f := range fields {
		v, err := c.NullableInt32(f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	for _, v := range vals {
		if v == nil {
			return nil, nil
		}
	}
	return &Bounds{
		X:      *vals[0],
		Y:      *vals[1],
		Width:  *vals[2],
		Height: *vals[3],
	}, nil
}

// SerializedWorkspace is the full persisted layout of one workspace.
// It is never mutated after load; a later save supersedes it.
type SerializedWorkspace struct {
	ID         WorkspaceID
	Location   Location
	Center     PaneGroup
	Bounds     *Bounds
	Fullscreen bool
	Display    *uuid.UUID
	Docks      DockStructure
}
