// Shared helpers for shelf commands: backend access, value parsing, output.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/patterns/internal/sqlite"
	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

// withBackend attaches a SQLite backend for the duration of fn.
func (a *app) withBackend(fn func(b *sqlite.Backend) error) error {
	b := sqlite.NewBackend()
	b.SetLogger(a.logger)
	if err := b.Attach(a.config); err != nil {
		return sysError("attach backend: %w", err)
	}
	defer func() {
		if err := b.Detach(); err != nil {
			a.logger.Warn("detach backend", "error", err)
		}
	}()
	return fn(b)
}

// readShelf loads the current shelf. A missing shelf is a user error.
func (a *app) readShelf(fn func(st *store.Store[any]) error) error {
	return a.withBackend(func(b *sqlite.Backend) error {
		st, err := b.Load(a.flags.shelf)
		if errors.Is(err, types.ErrNotFound) {
			return userError("shelf %q not found", a.flags.shelf)
		}
		if err != nil {
			return sysError("load shelf: %w", err)
		}
		return fn(st)
	})
}

// updateShelf loads the current shelf (or starts an empty one with the
// configured policy), runs fn and saves the result when fn succeeds.
func (a *app) updateShelf(fn func(st *store.Store[any]) error) error {
	return a.withBackend(func(b *sqlite.Backend) error {
		st, err := b.LoadOrNew(a.flags.shelf, a.config.WritePolicy())
		if err != nil {
			return sysError("load shelf: %w", err)
		}
		if err := fn(st); err != nil {
			return err
		}
		if err := b.Save(a.flags.shelf, st); err != nil {
			return sysError("save shelf: %w", err)
		}
		return nil
	})
}

// parseValue decodes arg as JSON when it is valid JSON and keeps it as a
// plain string otherwise, so `set k hello` and `set k '"hello"'` agree.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

// formatValue renders a value for text output: strings as-is, everything
// else as compact JSON.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeValue prints a single value in the selected output mode.
func (a *app) writeValue(cmd *cobra.Command, v any) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
	return nil
}

// entryOutput is the JSON shape of a single entry.
type entryOutput struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// writeEntries prints entries as a JSON array or as tab-separated lines.
func (a *app) writeEntries(w io.Writer, entries []store.Entry[any]) error {
	if a.flags.jsonMode {
		out := make([]entryOutput, 0, len(entries))
		for _, e := range entries {
			out = append(out, entryOutput{Key: e.Key, Value: e.Value})
		}
		return writeJSON(w, out)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Key, formatValue(e.Value))
	}
	return nil
}
