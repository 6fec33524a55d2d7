package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/patterns/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize shelf storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup has already written config.yaml; attaching creates the database.
			err := a.withBackend(func(b *sqlite.Backend) error { return nil })
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"config_dir": a.configDir,
					"data_dir":   a.config.DataDir,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Shelf initialized successfully")
			return nil
		},
	}
}
