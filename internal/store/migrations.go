package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
// Column order in workspaces and items follows the column protocol of
// the model package and must not be reordered.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create workspaces",
		SQL: `
			CREATE TABLE workspaces (
				workspace_id             INTEGER PRIMARY KEY,
				workspace_location       BLOB,
				remote_project           TEXT NOT NULL DEFAULT 'null',
				left_dock_visible        INTEGER,
				left_dock_active_panel   TEXT,
				left_dock_zoom           INTEGER,
				right_dock_visible       INTEGER,
				right_dock_active_panel  TEXT,
				right_dock_zoom          INTEGER,
				bottom_dock_visible      INTEGER,
				bottom_dock_active_panel TEXT,
				bottom_dock_zoom         INTEGER,
				window_x                 INTEGER,
				window_y                 INTEGER,
				window_width             INTEGER,
				window_height            INTEGER,
				fullscreen               INTEGER NOT NULL DEFAULT 0,
				display                  TEXT,
				timestamp                TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX idx_workspaces_location ON workspaces (workspace_location, remote_project);
		`,
	},
	{
		Version: 2,
		Name:    "create pane tree",
		SQL: `
			CREATE TABLE pane_groups (
				group_id        INTEGER PRIMARY KEY,
				workspace_id    INTEGER NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
				parent_group_id INTEGER REFERENCES pane_groups(group_id) ON DELETE CASCADE,
				position        INTEGER NOT NULL,
				axis            TEXT NOT NULL,
				flexes          TEXT
			);

			CREATE INDEX idx_pane_groups_parent ON pane_groups (workspace_id, parent_group_id);

			CREATE TABLE panes (
				pane_id      INTEGER PRIMARY KEY,
				workspace_id INTEGER NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
				active       INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE center_panes (
				pane_id         INTEGER PRIMARY KEY REFERENCES panes(pane_id) ON DELETE CASCADE,
				parent_group_id INTEGER REFERENCES pane_groups(group_id) ON DELETE CASCADE,
				position        INTEGER NOT NULL
			);

			CREATE TABLE items (
				workspace_id INTEGER NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
				pane_id      INTEGER NOT NULL REFERENCES panes(pane_id) ON DELETE CASCADE,
				position     INTEGER NOT NULL,
				kind         TEXT NOT NULL,
				item_id      INTEGER NOT NULL,
				active       INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (workspace_id, pane_id, position)
			);
		`,
	},
	{
		Version: 3,
		Name:    "add item preview flag",
		SQL: `
			ALTER TABLE items ADD COLUMN preview INTEGER NOT NULL DEFAULT 0;
		`,
	},
}

// SchemaVersion returns the newest migration version this build knows.
func SchemaVersion() int {
	return migrations[len(migrations)-1].Version
}
