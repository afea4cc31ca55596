package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	t.Setenv("LAYOUTDB_HOME", "/custom/base")
	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, "/custom/base", p.Base)
	assert.Equal(t, filepath.Join("/custom/base", "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join("/custom/base", "logs"), p.Logs)
	assert.Equal(t, filepath.Join("/custom/base", "data"), p.Data)
	assert.Equal(t, filepath.Join("/custom/base", "data", "workspaces.db"), p.Database)
}

func TestResolvePaths_DefaultBase(t *testing.T) {
	t.Setenv("LAYOUTDB_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".layoutdb"), p.Base)
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "home")
	t.Setenv("LAYOUTDB_HOME", base)
	p, err := ResolvePaths()
	require.NoError(t, err)

	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Base, p.Logs, p.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDatabasePath(t *testing.T) {
	p := Paths{Database: "/base/data/workspaces.db"}
	assert.Equal(t, "/base/data/workspaces.db", p.DatabasePath(Defaults()))

	cfg := Defaults()
	cfg.Database.Path = "/elsewhere.db"
	assert.Equal(t, "/elsewhere.db", p.DatabasePath(cfg))
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "restore", []string{"restore"}, false},
		{"two segments", "restore.flexPolicy", []string{"restore", "flexPolicy"}, false},
		{"empty", "", nil, true},
		{"empty segment", "restore..kinds", nil, true},
		{"trailing dot", "restore.", nil, true},
		{"blocked key", "foo.__proto__", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAtPath(t *testing.T) {
	root := map[string]any{}
	SetValueAtPath(root, []string{"logging", "level"}, "debug")
	SetValueAtPath(root, []string{"database", "path"}, "/x.db")

	v, ok := GetValueAtPath(root, []string{"logging", "level"})
	require.True(t, ok)
	assert.Equal(t, "debug", v)

	_, ok = GetValueAtPath(root, []string{"logging", "level", "deeper"})
	assert.False(t, ok)

	assert.True(t, UnsetValueAtPath(root, []string{"logging", "level"}))
	assert.False(t, UnsetValueAtPath(root, []string{"logging", "level"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))

	_, ok = GetValueAtPath(root, []string{"database", "path"})
	assert.True(t, ok)
}
