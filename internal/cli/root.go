package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soyeahso/layoutdb/internal/config"
	"github.com/soyeahso/layoutdb/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	dbPath   string

	// loaded at init time
	paths     config.Paths
	cfg       config.Config
	log       *logging.Logger
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layoutdb",
		Short: "layoutdb - workspace layout persistence",
		Long:  "layoutdb saves editor workspace layouts to SQLite and rebuilds them, dropping whatever can no longer be restored.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}

			log, logCloser, err = logging.NewWithOptions(logging.Options{
				Level: cfg.Logging.Level,
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			})
			if err != nil {
				return err
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.layoutdb/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "workspace database (default ~/.layoutdb/data/workspaces.db)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
