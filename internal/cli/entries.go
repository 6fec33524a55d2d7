// Single-entry commands: get, set, delete, list, search, clear.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return a.readShelf(func(st *store.Store[any]) error {
				v, ok := st.Get(key)
				if !ok {
					return userError("key %q not found", key)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), entryOutput{Key: key, Value: v})
				}
				return a.writeValue(cmd, v)
			})
		},
	}
}

// setOutput reports the outcome of a set.
type setOutput struct {
	Key     string `json:"key"`
	Policy  string `json:"policy"`
	Written bool   `json:"written"`
	Value   any    `json:"value"`
}

func newSetCmd(a *app) *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Long: "Store a value under a key. The value is parsed as JSON when valid and\n" +
			"kept as a string otherwise. Writes to an existing key follow the shelf\n" +
			"policy unless --policy overrides it for this write.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], parseValue(args[1])
			if key == "" {
				return userError("%w: empty key", types.ErrInvalidKey)
			}

			var override *types.Policy
			if cmd.Flags().Changed("policy") {
				p, err := types.ParsePolicy(policyName)
				if err != nil {
					return userError("%w", err)
				}
				override = &p
			}

			return a.updateShelf(func(st *store.Store[any]) error {
				policy := st.Policy()
				var written bool
				if override != nil {
					policy = *override
					written = st.StoreWith(key, value, policy)
				} else {
					written = st.Store(key, value)
				}
				current, _ := st.Get(key)
				a.logger.Info("set", "shelf", a.flags.shelf, "key", key, "policy", policy.String(), "written", written)

				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), setOutput{
						Key: key, Policy: policy.String(), Written: written, Value: current,
					})
				}
				if written {
					fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", key)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged (policy %s)\n", key, policy)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&policyName, "policy", "", "write policy for this write: reject, replace or merge")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return a.updateShelf(func(st *store.Store[any]) error {
				if !st.Remove(key) {
					return userError("key %q not found", key)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entries in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.readShelf(func(st *store.Store[any]) error {
				return a.writeEntries(cmd.OutOrStdout(), st.Entries())
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var fallbackArg string

	cmd := &cobra.Command{
		Use:   "search <needle>",
		Short: "Look a needle up as a key, then as a value",
		Long: "Search looks the needle up as a key first and then scans values in\n" +
			"insertion order. Without a match the --fallback value is printed, or\n" +
			"the command fails when no fallback is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.readShelf(func(st *store.Store[any]) error {
				// The raw argument is tried first so that a key such as "42"
				// is found before the number 42 is looked for among values.
				if m := st.Find(args[0]); len(m) > 0 {
					return a.writeValue(cmd, m[0])
				}
				needle := parseValue(args[0])
				if !cmd.Flags().Changed("fallback") && len(st.Find(needle)) == 0 {
					return userError("no match for %q", args[0])
				}
				return a.writeValue(cmd, st.Search(needle, parseValue(fallbackArg)))
			})
		},
	}
	cmd.Flags().StringVar(&fallbackArg, "fallback", "", "value printed when nothing matches")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the shelf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateShelf(func(st *store.Store[any]) error {
				removed := st.Clear()
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", len(removed))
				return nil
			})
		},
	}
}
