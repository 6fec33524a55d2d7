// Bulk commands: merge, exchange, export, import.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/patterns/internal/sqlite"
	"github.com/mesh-intelligence/patterns/pkg/registry"
	"github.com/mesh-intelligence/patterns/pkg/store"
)

// codec reads and writes a whole shelf in one file format.
type codec struct {
	name  string
	read  func(path string) (*store.Store[any], error)
	write func(path string, st *store.Store[any]) error
}

// codecs maps file extensions (".json", ".yaml", ...) to codecs.
var codecs = newCodecs()

func newCodecs() *registry.Registry[*codec] {
	complete := registry.ValidatorFunc[*codec](func(c *codec) bool {
		return c != nil && c.read != nil && c.write != nil
	})
	r := registry.New[*codec](complete, registry.WithCaseFold())

	jsonCodec := &codec{
		name: "json",
		read: func(path string) (*store.Store[any], error) {
			return readDocument(path, json.Unmarshal)
		},
		write: func(path string, st *store.Store[any]) error {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			return sqlite.WriteFileAtomic(path, append(data, '\n'))
		},
	}
	yamlCodec := &codec{
		name: "yaml",
		read: func(path string) (*store.Store[any], error) {
			return readDocument(path, yaml.Unmarshal)
		},
		write: func(path string, st *store.Store[any]) error {
			data, err := yaml.Marshal(st)
			if err != nil {
				return err
			}
			return sqlite.WriteFileAtomic(path, data)
		},
	}
	jsonlCodec := &codec{
		name: "jsonl",
		read: func(path string) (*store.Store[any], error) {
			return sqlite.ImportJSONL(path)
		},
		write: sqlite.ExportJSONL,
	}

	r.RegisterAs(".json", jsonCodec)
	r.RegisterAs(".yaml", yamlCodec)
	r.RegisterAs(".yml", yamlCodec)
	r.RegisterAs(".jsonl", jsonlCodec)
	r.RegisterAs(".ndjson", jsonlCodec)
	r.Seal()
	return r
}

// codecFor picks the codec for path by extension, defaulting to JSON.
func codecFor(path string) *codec {
	if c, ok := codecs.Get(filepath.Ext(path)); ok {
		return c
	}
	c, _ := codecs.Get(".json")
	return c
}

// readDocument decodes a single JSON or YAML document into a new store,
// keeping the document's key order.
func readDocument(path string, unmarshal func([]byte, any) error) (*store.Store[any], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st := store.New[any]()
	if err := unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return st, nil
}

// readEntries reads an ordered set of entries from a JSON object, a YAML
// mapping or a JSONL file.
func readEntries(path string) ([]store.Entry[any], error) {
	st, err := codecFor(path).read(path)
	if err != nil {
		return nil, err
	}
	return st.Entries(), nil
}

// writeEntriesFile writes st to path in the format chosen by its extension.
func writeEntriesFile(path string, st *store.Store[any]) error {
	c := codecFor(path)
	if err := c.write(path, st); err != nil {
		return fmt.Errorf("encode %s as %s: %w", path, c.name, err)
	}
	return nil
}

// bulkOutput reports how a bulk write changed the shelf.
type bulkOutput struct {
	Shelf   string `json:"shelf"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Applied int    `json:"applied"`
}

func newBulkCmd(a *app, use, short string, apply func(st *store.Store[any], entries []store.Entry[any]) map[string]any) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readEntries(args[0])
			if err != nil {
				return userError("%s: %w", use, err)
			}
			return a.updateShelf(func(st *store.Store[any]) error {
				prev := apply(st, entries)
				out := bulkOutput{Shelf: a.flags.shelf, Before: len(prev), After: st.Len(), Applied: len(entries)}
				a.logger.Info(use, "shelf", out.Shelf, "before", out.Before, "after", out.After)
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries applied, %d -> %d\n", use, out.Applied, out.Before, out.After)
				return nil
			})
		},
	}
}

func newMergeCmd(a *app) *cobra.Command {
	return newBulkCmd(a, "merge", "Overlay entries from a file onto the shelf",
		func(st *store.Store[any], entries []store.Entry[any]) map[string]any {
			return st.MergeEntries(entries)
		})
}

func newExchangeCmd(a *app) *cobra.Command {
	return newBulkCmd(a, "exchange", "Replace the shelf contents with entries from a file",
		func(st *store.Store[any], entries []store.Entry[any]) map[string]any {
			return st.ExchangeEntries(entries)
		})
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the shelf to a JSON, YAML or JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.readShelf(func(st *store.Store[any]) error {
				if err := writeEntriesFile(args[0], st); err != nil {
					return sysError("export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", st.Len(), args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create or replace the shelf from a JSONL export",
		Long: "Import reads a JSONL file and replaces the shelf with it. Lines are\n" +
			"written through the configured policy, so with the default policy the\n" +
			"first occurrence of a key wins. Malformed lines are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := sqlite.ImportJSONL(args[0], store.WithPolicy[any](a.config.WritePolicy()))
			if err != nil {
				return userError("import: %w", err)
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				st := sqlite.NewStore(a.config.WritePolicy())
				st.ExchangeEntries(imported.Entries())
				if err := b.Save(a.flags.shelf, st); err != nil {
					return sysError("save shelf: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", st.Len(), a.flags.shelf)
				return nil
			})
		},
	}
}
