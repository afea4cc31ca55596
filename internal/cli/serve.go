package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/layoutdb/internal/config"
	"github.com/soyeahso/layoutdb/internal/gateway"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workspace layouts to editors over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg.Gateway, a.service, a.store, a.directory, log, gateway.WithHooks(a.hooks))
			log.Info().
				Int("port", cfg.Gateway.Port).
				Str("bind", cfg.Gateway.Bind).
				Strs("kinds", a.registry.Kinds()).
				Int("remoteProjects", a.directory.Count()).
				Msg("starting layout server")
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides gateway.port)")
	cmd.Flags().StringVar(&bind, "bind", "", "bind mode: loopback, lan or custom (overrides gateway.bind)")
	return cmd
}
