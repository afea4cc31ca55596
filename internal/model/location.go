// Package model defines the persisted workspace layout record and its
// column encoding.
package model

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/soyeahso/layoutdb/internal/column"
)

// RemoteProjectID identifies a project hosted on a dev server.
type RemoteProjectID uint64

// DevServerID identifies a dev server.
type DevServerID uint64

// SerializedRemoteProject is the persisted form of a remote project reference.
type SerializedRemoteProject struct {
	ID            RemoteProjectID `json:"id" yaml:"id"`
	DevServerName string          `json:"dev_server_name" yaml:"devServerName"`
}

// RemoteProject is an entry in a RemoteDirectory.
type RemoteProject struct {
	ID          RemoteProjectID
	Path        string
	DevServerID DevServerID
}

// DevServer is a named host of remote projects.
type DevServer struct {
	ID   DevServerID
	Name string
}

// RemoteDirectory is the process-wide directory of known remote projects.
type RemoteDirectory interface {
	FindRemoteProject(id RemoteProjectID) (RemoteProject, bool)
	DevServer(id DevServerID) (DevServer, bool)
}

// Location identifies a workspace by its root paths, or by a remote project.
// Paths keep insertion order; callers canonicalize before lookup.
type Location struct {
	paths  []string
	remote *SerializedRemoteProject
}

// Local returns a location for the given root paths, stored as given.
func Local(paths ...string) Location {
	return Location{paths: slices.Clone(paths)}
}

// Remote resolves a remote project against dir. An unknown project yields
// empty paths and an empty dev server name rather than an error.
func Remote(id RemoteProjectID, dir RemoteDirectory) Location {
	var paths []string
	var name string
	if dir != nil {
		if project, ok := dir.FindRemoteProject(id); ok {
			paths = []string{project.Path}
			if server, ok := dir.DevServer(project.DevServerID); ok {
				name = server.Name
			}
		}
	}
	return Location{
		paths:  paths,
		remote: &SerializedRemoteProject{ID: id, DevServerName: name},
	}
}

// Paths returns a copy of the root paths.
func (l Location) Paths() []string {
	return slices.Clone(l.paths)
}

// RemoteProject returns the remote descriptor, or nil for local workspaces.
func (l Location) RemoteProject() *SerializedRemoteProject {
	if l.remote == nil {
		return nil
	}
	r := *l.remote
	return &r
}

// IsRemote reports whether the location refers to a remote project.
func (l Location) IsRemote() bool {
	return l.remote != nil
}

// Equal reports whether both locations have the same paths in the same
// order and the same remote descriptor.
func (l Location) Equal(other Location) bool {
	if !slices.Equal(l.paths, other.paths) {
		return false
	}
	switch {
	case l.remote == nil && other.remote == nil:
		return true
	case l.remote == nil || other.remote == nil:
		return false
	default:
		return *l.remote == *other.remote
	}
}

func (l Location) String() string {
	if l.remote != nil {
		return fmt.Sprintf("remote:%d%v", l.remote.ID, l.paths)
	}
	return fmt.Sprintf("local%v", l.paths)
}

// LocationColumnCount is the number of columns a Location occupies.
const LocationColumnCount = 2

// ColumnCount returns LocationColumnCount.
func (Location) ColumnCount() int { return LocationColumnCount }

// Bind writes the paths blob and the remote descriptor text.
func (l Location) Bind(b *column.Binder) error {
	b.Blob(EncodePaths(l.paths))
	remote, err := json.Marshal(l.remote)
	if err != nil {
		return fmt.Errorf("encoding remote project: %w", err)
	}
	b.Text(string(remote))
	return nil
}

// ReadLocation decodes a Location from the next two columns.
func ReadLocation(c *column.Cursor) (Location, error) {
	idx := c.Pos()
	blob, err := c.Blob("workspace_location")
	if err != nil {
		return Location{}, err
	}
	paths, err := DecodePaths(blob)
	if err != nil {
		return Location{}, &column.DecodeError{Field: "workspace_location", Index: idx, Err: err}
	}

	idx = c.Pos()
	text, err := c.Text("remote_project")
	if err != nil {
		return Location{}, err
	}
	var remote *SerializedRemoteProject
	if err := json.Unmarshal([]byte(text), &remote); err != nil {
		return Location{}, &column.DecodeError{Field: "remote_project", Index: idx, Err: err}
	}
	return Location{paths: paths, remote: remote}, nil
}

// ErrTruncatedPaths is returned when a paths blob ends early.
var ErrTruncatedPaths = errors.New("truncated paths blob")

// EncodePaths serializes paths as a little-endian u64 count followed by
// each path as a u64 byte length and its bytes.
func EncodePaths(paths []string) []byte {
	size := 8
	for _, p := range paths {
		size += 8 + len(p)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(paths)))
	for _, p := range paths {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

// DecodePaths reverses EncodePaths.
func DecodePaths(blob []byte) ([]string, error) {
	r := bytes.NewReader(blob)
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, ErrTruncatedPaths
	}
	// Each entry needs at least its length prefix.
	if count > uint64(r.Len())/8 {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrTruncatedPaths, count, len(blob))
	}
	paths := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		var n uint64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, ErrTruncatedPaths
		}
		if n > uint64(r.Len()) {
			return nil, fmt.Errorf("%w: path %d wants %d bytes", ErrTruncatedPaths, i, n)
		}
		p := make([]byte, n)
		if _, err := r.Read(p); err != nil && n > 0 {
			return nil, ErrTruncatedPaths
		}
		paths = append(paths, string(p))
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after paths", r.Len())
	}
	return paths, nil
}
