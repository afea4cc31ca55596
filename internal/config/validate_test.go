package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad port", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"bad bind", func(c *Config) { c.Gateway.Bind = "tailnet" }, "gateway.bind"},
		{"bad auth mode", func(c *Config) { c.Gateway.Auth.Mode = "oauth" }, "gateway.auth.mode"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad console style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
		{"negative concurrency", func(c *Config) { c.Restore.MaxConcurrentItems = -1 }, "restore.maxConcurrentItems"},
		{"bad flex policy", func(c *Config) { c.Restore.FlexPolicy = "stretch" }, "restore.flexPolicy"},
		{"empty kind", func(c *Config) { c.Restore.Kinds = []string{"Editor", ""} }, "restore.kinds[1]"},
		{"unnamed server", func(c *Config) {
			c.Remote.DevServers = []DevServerEntry{{ID: 1}}
		}, "remote.devServers[0].name"},
		{"duplicate server", func(c *Config) {
			c.Remote.DevServers = []DevServerEntry{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}
		}, "remote.devServers[1].id"},
		{"unknown server", func(c *Config) {
			c.Remote.Projects = []RemoteProjectEntry{{ID: 1, Path: "/x", DevServerID: 9}}
		}, "remote.projects[0].devServer"},
		{"hook without command", func(c *Config) {
			c.Hooks.ItemDropped = []HookEntry{{}}
		}, "hooks.itemDropped[0].command"},
		{"negative hook timeout", func(c *Config) {
			c.Hooks.PaneDropped = []HookEntry{{Command: "true", Timeout: -5}}
		}, "hooks.paneDropped[0].timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			require.Len(t, issues, 1, "issues: %v", issues)
			assert.Equal(t, tt.path, issues[0].Path)
			assert.Contains(t, issues[0].String(), tt.path)
		})
	}
}

func TestValidate_RemoteOK(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.DevServers = []DevServerEntry{{ID: 1, Name: "box"}}
	cfg.Remote.Projects = []RemoteProjectEntry{{ID: 3, Path: "/srv", DevServerID: 1}}
	assert.Empty(t, Validate(&cfg))
}
