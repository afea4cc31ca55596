package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/soyeahso/layoutdb/internal/config"
)

const defaultCommandTimeout = 5 * time.Second

// CommandHandler returns a handler that runs a shell command with the
// JSON-encoded payload on stdin.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := defaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}
	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if stderr.Len() > 0 {
				return fmt.Errorf("hook %q: %w: %s", entry.Command, err, bytes.TrimSpace(stderr.Bytes()))
			}
			return fmt.Errorf("hook %q: %w", entry.Command, err)
		}
		return nil
	}
}

// RegisterCommands wires every configured command hook into m as a
// detached handler.
func (m *Manager) RegisterCommands(cfg config.HooksConfig) {
	groups := []struct {
		event   string
		entries []config.HookEntry
	}{
		{EventWorkspaceSaved, cfg.WorkspaceSaved},
		{EventWorkspaceRestored, cfg.WorkspaceRestored},
		{EventItemDropped, cfg.ItemDropped},
		{EventPaneDropped, cfg.PaneDropped},
	}
	for _, g := range groups {
		for i, entry := range g.entries {
			m.OnDetached(g.event, fmt.Sprintf("command-%d", i), CommandHandler(entry))
		}
	}
}
