package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layoutYAML = `
location:
  paths: [/work/app]
center:
  group:
    axis: Vertical
    children:
      - pane:
          active: true
          items:
            - {kind: Editor, id: 1, active: true}
            - {kind: Notebook, id: 2}
      - pane:
          items:
            - {kind: Notebook, id: 3}
docks:
  left: {visible: true}
`

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("LAYOUTDB_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("restore:\n  kinds: [Editor]\n"), 0o600))
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ImportListShowRestoreDelete(t *testing.T) {
	home := setupHome(t)
	file := filepath.Join(home, "layout.yaml")
	require.NoError(t, os.WriteFile(file, []byte(layoutYAML), 0o600))

	out, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved workspace")

	_, err = os.Stat(filepath.Join(home, "data", "workspaces.db"))
	require.NoError(t, err)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/work/app")

	out, err = run(t, "show", "/work/app")
	require.NoError(t, err)
	assert.Contains(t, out, "axis: Vertical")
	assert.Contains(t, out, "kind: Notebook")

	out, err = run(t, "restore", "/work/app")
	require.NoError(t, err)
	assert.Contains(t, out, "Editor 1 (active)")
	assert.Contains(t, out, "dropped Notebook 2")
	assert.Contains(t, out, "dropped Notebook 3")
	assert.NotContains(t, out, "vertical", "group with one surviving pane collapses")

	out, err = run(t, "show", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "/work/app")

	out, err = run(t, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted workspace 1")

	_, err = run(t, "show", "/work/app")
	assert.Error(t, err)
}

func TestCLI_RestoreEverythingDropped(t *testing.T) {
	home := setupHome(t)
	file := filepath.Join(home, "layout.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
location: {paths: [/only/notebooks]}
center:
  pane:
    items: [{kind: Notebook, id: 4}]
`), 0o600))

	_, err := run(t, "import", file)
	require.NoError(t, err)

	out, err := run(t, "restore", "/only/notebooks")
	require.NoError(t, err)
	assert.Contains(t, out, "(empty)")
}

func TestCLI_ListEmpty(t *testing.T) {
	setupHome(t)
	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved workspaces.")
}

func TestCLI_InvalidConfig(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("restore:\n  flexPolicy: stretch\n"), 0o600))

	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestCLI_LocationArgs(t *testing.T) {
	setupHome(t)
	_, err := run(t, "show")
	assert.Error(t, err)

	_, err = run(t, "show", "--remote", "3", "/a")
	assert.Error(t, err)

	_, err = run(t, "delete", "abc")
	assert.Error(t, err)
}

func TestCLI_ConfigSetGet(t *testing.T) {
	setupHome(t)
	_, err := run(t, "config", "set", "restore.flexPolicy", "retain")
	require.NoError(t, err)

	out, err := run(t, "config", "get", "restore.flexPolicy")
	require.NoError(t, err)
	assert.Equal(t, "retain\n", out)

	out, err = run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "workspaces.db")
}

func TestCLI_Version(t *testing.T) {
	setupHome(t)
	out, err := run(t, "version", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "schema: 3")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, 8, parseValue("8"))
	assert.Equal(t, 0.5, parseValue("0.5"))
	assert.Equal(t, "retain", parseValue("retain"))
}

func TestCLI_ServeRejectsBadBind(t *testing.T) {
	setupHome(t)

	_, err := run(t, "serve", "--bind", "everywhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
