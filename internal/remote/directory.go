// Package remote keeps the process-wide directory of known remote projects
// and the dev servers hosting them.
package remote

import (
	"sync"

	"github.com/soyeahso/layoutdb/internal/config"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
)

// Directory is a concurrency-safe registry of remote projects and dev servers.
type Directory struct {
	mu       sync.RWMutex
	projects map[model.RemoteProjectID]model.RemoteProject
	servers  map[model.DevServerID]model.DevServer
	log      *logging.Logger
}

var _ model.RemoteDirectory = (*Directory)(nil)

// NewDirectory creates an empty directory.
func NewDirectory(log *logging.Logger) *Directory {
	return &Directory{
		projects: make(map[model.RemoteProjectID]model.RemoteProject),
		servers:  make(map[model.DevServerID]model.DevServer),
		log:      log.Sub("remote"),
	}
}

// NewDirectoryFromConfig creates a directory seeded from configuration.
func NewDirectoryFromConfig(cfg config.RemoteConfig, log *logging.Logger) *Directory {
	d := NewDirectory(log)
	for _, s := range cfg.DevServers {
		d.AddDevServer(model.DevServer{ID: model.DevServerID(s.ID), Name: s.Name})
	}
	for _, p := range cfg.Projects {
		d.AddProject(model.RemoteProject{
			ID:          model.RemoteProjectID(p.ID),
			Path:        p.Path,
			DevServerID: model.DevServerID(p.DevServerID),
		})
	}
	return d
}

// AddProject registers or replaces a remote project.
func (d *Directory) AddProject(p model.RemoteProject) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projects[p.ID] = p
	d.log.Debug().Uint64("project", uint64(p.ID)).Str("path", p.Path).Msg("remote project registered")
}

// AddDevServer registers or replaces a dev server.
func (d *Directory) AddDevServer(s model.DevServer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.servers[s.ID] = s
	d.log.Debug().Uint64("devServer", uint64(s.ID)).Str("name", s.Name).Msg("dev server registered")
}

// FindRemoteProject looks up a project by id.
func (d *Directory) FindRemoteProject(id model.RemoteProjectID) (model.RemoteProject, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.projects[id]
	return p, ok
}

// DevServer looks up a dev server by id.
func (d *Directory) DevServer(id model.DevServerID) (model.DevServer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.servers[id]
	return s, ok
}

// Count returns the number of registered projects.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.projects)
}
