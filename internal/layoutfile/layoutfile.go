// Package layoutfile reads and writes layout records as YAML documents.
package layoutfile

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/layoutdb/internal/model"
)

// File is the YAML form of a layout record.
type File struct {
	ID         int64               `yaml:"id,omitempty" json:"id,omitempty"`
	Location   Location            `yaml:"location" json:"location"`
	Center     *Node               `yaml:"center,omitempty" json:"center,omitempty"`
	Bounds     *model.Bounds       `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	Fullscreen bool                `yaml:"fullscreen,omitempty" json:"fullscreen,omitempty"`
	Display    string              `yaml:"display,omitempty" json:"display,omitempty"`
	Docks      model.DockStructure `yaml:"docks,omitempty" json:"docks"`
}

// Location is either a list of paths or a remote project reference.
type Location struct {
	Paths  []string                       `yaml:"paths,omitempty" json:"paths,omitempty"`
	Remote *model.SerializedRemoteProject `yaml:"remote,omitempty" json:"remote,omitempty"`
}

// Node holds exactly one of Group or Pane.
type Node struct {
	Group *Group `yaml:"group,omitempty" json:"group,omitempty"`
	Pane  *Pane  `yaml:"pane,omitempty" json:"pane,omitempty"`
}

// Group is a split node.
type Group struct {
	Axis     string    `yaml:"axis" json:"axis"`
	Flexes   []float32 `yaml:"flexes,omitempty,flow" json:"flexes,omitempty"`
	Children []Node    `yaml:"children" json:"children"`
}

// Pane is a leaf node.
type Pane struct {
	Active bool                   `yaml:"active,omitempty" json:"active,omitempty"`
	Items  []model.SerializedItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// ErrInvalidNode is returned for nodes that are neither a group nor a pane.
var ErrInvalidNode = errors.New("node must set exactly one of group or pane")

// ErrEmptyGroup is returned for a group without children.
var ErrEmptyGroup = errors.New("group has no children")

// Decode parses a YAML layout. Remote locations are resolved through dir;
// the paths of a remote location in the document are ignored.
func Decode(r io.Reader, dir model.RemoteDirectory) (*model.SerializedWorkspace, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	return f.Record(dir)
}

// Record converts f into a layout record.
func (f *File) Record(dir model.RemoteDirectory) (*model.SerializedWorkspace, error) {
	rec := &model.SerializedWorkspace{
		ID:         model.WorkspaceID(f.ID),
		Fullscreen: f.Fullscreen,
		Docks:      f.Docks,
	}
	if f.Location.Remote != nil {
		rec.Location = model.Remote(f.Location.Remote.ID, dir)
	} else {
		rec.Location = model.Local(f.Location.Paths...)
	}

	if f.Center != nil {
		center, err := f.Center.tree("center")
		if err != nil {
			return nil, err
		}
		rec.Center = center
	}

	if f.Bounds != nil {
		b := *f.Bounds
		rec.Bounds = &b
	}
	if f.Display != "" {
		id, err := uuid.Parse(f.Display)
		if err != nil {
			return nil, fmt.Errorf("display: %w", err)
		}
		rec.Display = &id
	}
	return rec, nil
}

func (n *Node) tree(path string) (model.PaneGroup, error) {
	switch {
	case n.Group != nil && n.Pane == nil:
		axis, err := model.ParseAxis(n.Group.Axis)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(n.Group.Children) == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyGroup)
		}
		g := &model.Group{Axis: axis, Flexes: n.Group.Flexes}
		for i := range n.Group.Children {
			child, err := n.Group.Children[i].tree(fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		}
		return g, nil
	case n.Pane != nil && n.Group == nil:
		return &model.SerializedPane{Active: n.Pane.Active, Children: n.Pane.Items}, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrInvalidNode)
}

// FromRecord converts a layout record into its YAML form.
func FromRecord(rec *model.SerializedWorkspace) *File {
	f := &File{
		ID:         int64(rec.ID),
		Location:   Location{Paths: rec.Location.Paths(), Remote: rec.Location.RemoteProject()},
		Center:     node(rec.Center),
		Fullscreen: rec.Fullscreen,
		Docks:      rec.Docks,
	}
	if rec.Bounds != nil {
		b := *rec.Bounds
		f.Bounds = &b
	}
	if rec.Display != nil {
		f.Display = rec.Display.String()
	}
	return f
}

func node(g model.PaneGroup) *Node {
	switch n := g.(type) {
	case *model.Group:
		out := &Group{Axis: string(n.Axis), Flexes: n.Flexes}
		for _, child := range n.Children {
			if c := node(child); c != nil {
				out.Children = append(out.Children, *c)
			}
		}
		return &Node{Group: out}
	case *model.SerializedPane:
		return &Node{Pane: &Pane{Active: n.Active, Items: n.Children}}
	}
	return nil
}

// Encode writes rec as YAML.
func Encode(w io.Writer, rec *model.SerializedWorkspace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromRecord(rec)); err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	return enc.Close()
}
