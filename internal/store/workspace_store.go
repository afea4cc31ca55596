package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/layoutdb/internal/column"
	"github.com/soyeahso/layoutdb/internal/model"
)

// ErrNotFound is returned when no record exists for a location or id.
var ErrNotFound = errors.New("workspace not found")

// workspaceColumns lists the workspaces columns read back into a record:
// id, location (2), docks (9), bounds (4), fullscreen, display.
var workspaceColumns = []string{
	"workspace_id",
	"workspace_location", "remote_project",
	"left_dock_visible", "left_dock_active_panel", "left_dock_zoom",
	"right_dock_visible", "right_dock_active_panel", "right_dock_zoom",
	"bottom_dock_visible", "bottom_dock_active_panel", "bottom_dock_zoom",
	"window_x", "window_y", "window_width", "window_height",
	"fullscreen", "display",
}

const workspaceColumnCount = 1 + model.LocationColumnCount + model.DockStructureColumnCount + model.BoundsColumnCount + 2

// RecentWorkspace is a summary row returned by Recent.
type RecentWorkspace struct {
	ID       model.WorkspaceID
	Location model.Location
	SavedAt  time.Time
}

// WorkspaceStore persists layout records. Saves for the same location are
// serialized; the last save wins.
type WorkspaceStore struct {
	db    *DB
	locks sync.Map // location key -> *sync.Mutex
}

// NewWorkspaceStore creates a workspace store using the given database.
func NewWorkspaceStore(db *DB) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

// NextID reserves a new workspace id.
func (s *WorkspaceStore) NextID(ctx context.Context) (model.WorkspaceID, error) {
	res, err := s.db.sql.ExecContext(ctx, `INSERT INTO workspaces DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("reserving workspace id: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reserving workspace id: %w", err)
	}
	return model.WorkspaceID(id), nil
}

// Save writes ws in full, replacing any earlier record with the same id
// and any other record for the same location.
func (s *WorkspaceStore) Save(ctx context.Context, ws *model.SerializedWorkspace) error {
	loc := column.NewBinder()
	if err := loc.Value(ws.Location); err != nil {
		return err
	}

	mu := s.lockFor(locationKey(loc.Args()))
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	stale, err := s.staleIDs(ctx, tx, ws.ID, loc.Args())
	if err != nil {
		return err
	}
	for _, id := range stale {
		if err := deleteWorkspace(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := clearTree(ctx, tx, ws.ID); err != nil {
		return err
	}

	b := column.NewBinder()
	b.Int64(int64(ws.ID))
	if err := b.Value(ws.Location); err != nil {
		return err
	}
	if err := b.Value(ws.Docks); err != nil {
		return err
	}
	model.BindBounds(b, ws.Bounds)
	b.Bool(ws.Fullscreen)
	if ws.Display != nil {
		b.Text(ws.Display.String())
	} else {
		b.Null()
	}

	updates := make([]string, 0, len(workspaceColumns)-1)
	for _, col := range workspaceColumns[1:] {
		updates = append(updates, col+" = excluded."+col)
	}
	query := fmt.Sprintf(
		`INSERT INTO workspaces (%s) VALUES (%s)
		 ON CONFLICT(workspace_id) DO UPDATE SET %s, timestamp = CURRENT_TIMESTAMP`,
		strings.Join(workspaceColumns, ", "),
		placeholders(len(workspaceColumns)),
		strings.Join(updates, ", "),
	)
	if _, err := tx.ExecContext(ctx, query, b.Args()...); err != nil {
		return fmt.Errorf("writing workspace %d: %w", ws.ID, err)
	}

	if err := saveNode(ctx, tx, ws.ID, ws.Center, nil, 0); err != nil {
		return fmt.Errorf("writing pane tree for workspace %d: %w", ws.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.db.log.Debug().
		Int64("workspace", int64(ws.ID)).
		Str("location", ws.Location.String()).
		Int("panes", model.CountPanes(ws.Center)).
		Msg("workspace saved")
	return nil
}

// Load returns the record stored for loc. Decode failures are fatal for the
// record and wrap a *column.DecodeError.
func (s *WorkspaceStore) Load(ctx context.Context, loc model.Location) (*model.SerializedWorkspace, error) {
	b := column.NewBinder()
	if err := b.Value(loc); err != nil {
		return nil, err
	}
	row := s.db.sql.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM workspaces
		 WHERE workspace_location = ? AND remote_project = ?
		 ORDER BY timestamp DESC, workspace_id DESC LIMIT 1`, strings.Join(workspaceColumns, ", ")),
		b.Args()...,
	)
	return s.loadRow(ctx, row)
}

// LoadByID returns the record with the given id.
func (s *WorkspaceStore) LoadByID(ctx context.Context, id model.WorkspaceID) (*model.SerializedWorkspace, error) {
	row := s.db.sql.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM workspaces
		 WHERE workspace_id = ? AND workspace_location IS NOT NULL`, strings.Join(workspaceColumns, ", ")),
		int64(id),
	)
	return s.loadRow(ctx, row)
}

// Recent lists saved workspaces, most recently saved first. Limit of 0
// defaults to 20.
func (s *WorkspaceStore) Recent(ctx context.Context, limit int) ([]RecentWorkspace, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT workspace_id, workspace_location, remote_project, timestamp
		 FROM workspaces WHERE workspace_location IS NOT NULL
		 ORDER BY timestamp DESC, workspace_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	defer rows.Close()

	var out []RecentWorkspace
	for rows.Next() {
		c, err := column.Scan(rows, 1+model.LocationColumnCount+1)
		if err != nil {
			return nil, err
		}
		id, err := c.Int64("workspace_id")
		if err != nil {
			return nil, err
		}
		loc, err := model.ReadLocation(c)
		if err != nil {
			return nil, fmt.Errorf("workspace %d: %w", id, err)
		}
		ts, err := c.Text("timestamp")
		if err != nil {
			return nil, err
		}
		savedAt, _ := time.Parse(time.DateTime, ts)
		out = append(out, RecentWorkspace{ID: model.WorkspaceID(id), Location: loc, SavedAt: savedAt})
	}
	return out, rows.Err()
}

// Delete removes a workspace record and its pane tree.
func (s *WorkspaceStore) Delete(ctx context.Context, id model.WorkspaceID) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if err := deleteWorkspace(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *WorkspaceStore) lockFor(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *WorkspaceStore) staleIDs(ctx context.Context, tx *sql.Tx, keep model.WorkspaceID, locArgs []any) ([]model.WorkspaceID, error) {
	args := append(append([]any{}, locArgs...), int64(keep))
	rows, err := tx.QueryContext(ctx,
		`SELECT workspace_id FROM workspaces
		 WHERE workspace_location = ? AND remote_project = ? AND workspace_id != ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("finding stale workspaces: %w", err)
	}
	defer rows.Close()

	var ids []model.WorkspaceID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, model.WorkspaceID(id))
	}
	return ids, rows.Err()
}

func (s *WorkspaceStore) loadRow(ctx context.Context, row *sql.Row) (*model.SerializedWorkspace, error) {
	c, err := column.Scan(row, workspaceColumnCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workspace: %w", err)
	}

	ws, err := readWorkspace(c)
	if err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}

	center, err := s.loadCenter(ctx, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("loading pane tree for workspace %d: %w", ws.ID, err)
	}
	ws.Center = center
	return ws, nil
}

func readWorkspace(c *column.Cursor) (*model.SerializedWorkspace, error) {
	id, err := c.Int64("workspace_id")
	if err != nil {
		return nil, err
	}
	loc, err := model.ReadLocation(c)
	if err != nil {
		return nil, err
	}
	docks, err := model.ReadDockStructure(c)
	if err != nil {
		return nil, err
	}
	bounds, err := model.ReadBounds(c)
	if err != nil {
		return nil, err
	}
	fullscreen, err := c.Bool("fullscreen")
	if err != nil {
		return nil, err
	}
	idx := c.Pos()
	displayText, err := c.NullableText("display")
	if err != nil {
		return nil, err
	}
	var display *uuid.UUID
	if displayText != nil {
		d, err := uuid.Parse(*displayText)
		if err != nil {
			return nil, &column.DecodeError{Field: "display", Index: idx, Err: err}
		}
		display = &d
	}

	return &model.SerializedWorkspace{
		ID:         model.WorkspaceID(id),
		Location:   loc,
		Bounds:     bounds,
		Fullscreen: fullscreen,
		Display:    display,
		Docks:      docks,
	}, nil
}

// treeEntry is one child row of a group: either a nested group or a pane.
type treeEntry struct {
	groupID *int64
	axis    *string
	flexes  *string
	paneID  *int64
	active  *bool
}

// loadCenter returns the root of the center tree, or nil for a workspace
// saved with an empty center.
func (s *WorkspaceStore) loadCenter(ctx context.Context, id model.WorkspaceID) (model.PaneGroup, error) {
	children, err := s.loadChildren(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	return children[0], nil
}

func (s *WorkspaceStore) loadChildren(ctx context.Context, id model.WorkspaceID, parent *int64) ([]model.PaneGroup, error) {
	entries, err := s.queryChildren(ctx, id, parent)
	if err != nil {
		return nil, err
	}

	children := make([]model.PaneGroup, 0, len(entries))
	for _, e := range entries {
		if e.groupID != nil {
			group, err := s.loadGroup(ctx, id, e)
			if err != nil {
				return nil, err
			}
			if group != nil {
				children = append(children, group)
			}
			continue
		}
		if e.paneID == nil {
			return nil, errors.New("tree row with neither group nor pane")
		}
		items, err := s.loadItems(ctx, *e.paneID)
		if err != nil {
			return nil, err
		}
		children = append(children, &model.SerializedPane{
			Active:   e.active != nil && *e.active,
			Children: items,
		})
	}
	return children, nil
}

// loadGroup decodes one group row and its children. Groups with no children
// are dropped.
func (s *WorkspaceStore) loadGroup(ctx context.Context, id model.WorkspaceID, e treeEntry) (*model.Group, error) {
	if e.axis == nil {
		return nil, &column.DecodeError{Field: "axis", Index: 1, Err: errors.New("unexpected NULL")}
	}
	axis, err := model.ParseAxis(*e.axis)
	if err != nil {
		return nil, &column.DecodeError{Field: "axis", Index: 1, Err: err}
	}
	var flexes []float32
	if e.flexes != nil {
		if err := json.Unmarshal([]byte(*e.flexes), &flexes); err != nil {
			return nil, &column.DecodeError{Field: "flexes", Index: 2, Err: err}
		}
	}
	children, err := s.loadChildren(ctx, id, e.groupID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	return &model.Group{Axis: axis, Flexes: flexes, Children: children}, nil
}

// queryChildren reads all child rows before returning so no result set is
// held open across the recursive queries.
func (s *WorkspaceStore) queryChildren(ctx context.Context, id model.WorkspaceID, parent *int64) ([]treeEntry, error) {
	var parentArg any
	if parent != nil {
		parentArg = *parent
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT group_id, axis, flexes, NULL, NULL, position
		 FROM pane_groups
		 WHERE parent_group_id IS ? AND workspace_id = ?
		 UNION ALL
		 SELECT NULL, NULL, NULL, center_panes.pane_id, panes.active, center_panes.position
		 FROM center_panes JOIN panes ON center_panes.pane_id = panes.pane_id
		 WHERE center_panes.parent_group_id IS ? AND panes.workspace_id = ?
		 ORDER BY 6`,
		parentArg, int64(id), parentArg, int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("querying pane tree: %w", err)
	}
	defer rows.Close()

	var entries []treeEntry
	for rows.Next() {
		c, err := column.Scan(rows, 6)
		if err != nil {
			return nil, err
		}
		var e treeEntry
		if e.groupID, err = c.NullableInt64("group_id"); err != nil {
			return nil, err
		}
		if e.axis, err = c.NullableText("axis"); err != nil {
			return nil, err
		}
		if e.flexes, err = c.NullableText("flexes"); err != nil {
			return nil, err
		}
		if e.paneID, err = c.NullableInt64("pane_id"); err != nil {
			return nil, err
		}
		if e.active, err = c.NullableBool("active"); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *WorkspaceStore) loadItems(ctx context.Context, paneID int64) ([]model.SerializedItem, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT kind, item_id, active, preview FROM items WHERE pane_id = ? ORDER BY position`, paneID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []model.SerializedItem
	for rows.Next() {
		c, err := column.Scan(rows, model.SerializedItemColumnCount)
		if err != nil {
			return nil, err
		}
		item, err := model.ReadSerializedItem(c)
		if err != nil {
			return nil, fmt.Errorf("pane %d: %w", paneID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func saveNode(ctx context.Context, tx *sql.Tx, id model.WorkspaceID, node model.PaneGroup, parent *int64, position int) error {
	var parentArg any
	if parent != nil {
		parentArg = *parent
	}

	switch n := node.(type) {
	case nil:
		return nil
	case *model.Group:
		var flexes any
		if n.Flexes != nil {
			data, err := json.Marshal(n.Flexes)
			if err != nil {
				return fmt.Errorf("encoding flexes: %w", err)
			}
			flexes = string(data)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pane_groups (workspace_id, parent_group_id, position, axis, flexes)
			 VALUES (?, ?, ?, ?, ?)`,
			int64(id), parentArg, position, string(n.Axis), flexes,
		)
		if err != nil {
			return err
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i, child := range n.Children {
			if err := saveNode(ctx, tx, id, child, &groupID, i); err != nil {
				return err
			}
		}
		return nil
	case *model.SerializedPane:
		b := column.NewBinder()
		b.Int64(int64(id))
		b.Bool(n.Active)
		res, err := tx.ExecContext(ctx, `INSERT INTO panes (workspace_id, active) VALUES (?, ?)`, b.Args()...)
		if err != nil {
			return err
		}
		paneID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO center_panes (pane_id, parent_group_id, position) VALUES (?, ?, ?)`,
			paneID, parentArg, position,
		); err != nil {
			return err
		}
		for i, item := range n.Children {
			b := column.NewBinder()
			b.Int64(int64(id))
			b.Int64(paneID)
			b.Int64(int64(i))
			if err := b.Value(item); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (workspace_id, pane_id, position, kind, item_id, active, preview)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`, b.Args()...,
			); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown pane group node %T", node)
	}
}

// clearTree removes the pane tree of a workspace, leaving its row.
func clearTree(ctx context.Context, tx *sql.Tx, id model.WorkspaceID) error {
	stmts := []string{
		`DELETE FROM items WHERE workspace_id = ?`,
		`DELETE FROM center_panes WHERE pane_id IN (SELECT pane_id FROM panes WHERE workspace_id = ?)`,
		`DELETE FROM panes WHERE workspace_id = ?`,
		`DELETE FROM pane_groups WHERE workspace_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, int64(id)); err != nil {
			return fmt.Errorf("clearing pane tree of workspace %d: %w", id, err)
		}
	}
	return nil
}

func deleteWorkspace(ctx context.Context, tx *sql.Tx, id model.WorkspaceID) error {
	if err := clearTree(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE workspace_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("deleting workspace %d: %w", id, err)
	}
	return nil
}

func locationKey(args []any) string {
	blob, _ := args[0].([]byte)
	remote, _ := args[1].(string)
	return string(blob) + "\x00" + remote
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
