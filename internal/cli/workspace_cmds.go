package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/layoutdb/internal/layoutfile"
	"github.com/soyeahso/layoutdb/internal/live"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Save a YAML layout into the database (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			rec, err := layoutfile.Decode(r, a.directory)
			if err != nil {
				return err
			}
			rec, err = a.service.SaveRecord(cmd.Context(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved workspace %d for %s\n", rec.ID, rec.Location)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	var loc locationFlags
	cmd := &cobra.Command{
		Use:   "show [path...]",
		Short: "Print the stored layout for a location as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := loc.load(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			return layoutfile.Encode(cmd.OutOrStdout(), rec)
		},
	}
	loc.register(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently saved workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			recent, err := a.store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recent) == 0 {
				fmt.Fprintln(out, "No saved workspaces.")
				return nil
			}
			for _, r := range recent {
				fmt.Fprintf(out, "%6d  %s  %s\n", r.ID, r.SavedAt.Format(time.DateTime), r.Location)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of workspaces")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var (
		loc     locationFlags
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "restore [path...]",
		Short: "Rebuild a stored layout and print what survived",
		Long: "Rebuild a stored layout using placeholder items for the kinds listed in restore.kinds.\n" +
			"Items of other kinds are dropped, as are panes and groups left empty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			rec, err := loc.load(ctx, a, args)
			if err != nil {
				return err
			}
			restored, err := a.service.RestoreRecord(ctx, rec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ws := restored.Workspace
			fmt.Fprintf(out, "Workspace %d (%s)\n", ws.ID, ws.Location)
			if ws.IsEmpty() {
				fmt.Fprintln(out, "  (empty)")
			} else {
				printMember(out, ws.Center, ws.ActivePane, 1)
			}
			for _, r := range restored.Tree.Failed() {
				fmt.Fprintf(out, "dropped %s %d: %v\n", r.Item.Kind, r.Item.ItemID, r.Err)
			}
			return nil
		},
	}
	loc.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abandon the restore after this long")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workspace %d\n", id)
			return nil
		},
	}
}

func printMember(w io.Writer, m live.Member, active *live.Pane, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := m.(type) {
	case *live.Axis:
		fmt.Fprintf(w, "%s%s %v\n", indent, strings.ToLower(string(n.Axis)), n.Flexes)
		for _, child := range n.Members {
			printMember(w, child, active, depth+1)
		}
	case *live.Pane:
		marker := ""
		if n == active {
			marker = " *"
		}
		fmt.Fprintf(w, "%spane %d%s\n", indent, n.ID(), marker)
		activeIdx, previewIdx := n.ActiveIndex(), n.PreviewIndex()
		for i, it := range n.Items() {
			var flags []string
			if i == activeIdx {
				flags = append(flags, "active")
			}
			if i == previewIdx {
				flags = append(flags, "preview")
			}
			suffix := ""
			if len(flags) > 0 {
				suffix = " (" + strings.Join(flags, ", ") + ")"
			}
			fmt.Fprintf(w, "%s  %s %d%s\n", indent, it.Kind(), it.ItemID(), suffix)
		}
	}
}
