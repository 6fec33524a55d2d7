// Package cli implements the shelf command-line interface: named keyed
// stores persisted in a snapshot backend.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/patterns/internal/paths"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// DefaultShelf is the shelf used when --shelf is not given.
const DefaultShelf = "default"

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError reports a problem with the command's input (exit code 1).
func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysError reports an environment or storage failure (exit code 2).
func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCodeOf maps an error returned by the root command to an exit code.
// Errors raised by cobra itself (unknown flags, wrong arity) are user errors.
func exitCodeOf(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	shelf     string
	jsonMode  bool
}

// app is the state shared by the commands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	config    types.Config
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "shelf" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Keyed stores with write policies, kept on named shelves",
		Long: "Shelf manages named keyed stores. Each shelf keeps its entries in\n" +
			"insertion order and applies a write policy (reject, replace, merge)\n" +
			"to writes on existing keys.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: ./"+paths.DefaultConfigDirName+" or the user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: ./"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&a.flags.shelf, "shelf", DefaultShelf, "shelf to operate on")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newSetCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newClearCmd(a))
	root.AddCommand(newMergeCmd(a))
	root.AddCommand(newExchangeCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newShelvesCmd(a))
	root.AddCommand(newDropCmd(a))

	return root
}

// Execute runs the root command with the process arguments and exits with
// the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns its exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "shelf:", err)
	}
	return exitCodeOf(err)
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if a.flags.shelf == "" {
		return userError("--shelf must not be empty")
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		if errors.Is(err, errInvalidConfig) {
			return userError("%w", err)
		}
		return sysError("%w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	a.configDir = configDir
	a.config = cfg
	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded",
		"config_dir", configDir,
		"data_dir", dataDir,
		"policy", cfg.WritePolicy().String(),
	)
	return nil
}
