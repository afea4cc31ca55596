package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/layoutdb/internal/store"
	"github.com/soyeahso/layoutdb/internal/version"
)

func newVersionCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of layoutdb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asYAML {
				fmt.Fprintln(cmd.OutOrStdout(), version.Info(store.SchemaVersion()))
				return nil
			}
			data, err := yaml.Marshal(version.Current(store.SchemaVersion()))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print build metadata as YAML")
	return cmd
}
