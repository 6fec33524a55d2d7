// Shelf management commands: shelves, drop.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/patterns/internal/sqlite"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

func newShelvesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shelves",
		Short: "List saved shelves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				infos, err := b.Shelves()
				if err != nil {
					return sysError("list shelves: %w", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), infos)
				}
				for _, info := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n",
						info.Name, info.Policy, info.Entries, info.UpdatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the shelf and all its entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				err := b.Drop(a.flags.shelf)
				if errors.Is(err, types.ErrNotFound) {
					return userError("shelf %q not found", a.flags.shelf)
				}
				if err != nil {
					return sysError("drop shelf: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", a.flags.shelf)
				return nil
			})
		},
	}
}
