// Package cli implements the tilekit command-line interface.
//
// The commands mirror the curator's workflow:
//   - slice: cut a sprite sheet into tiles and write manifest.json
//   - overview: render a labelled contact sheet of a sliced tileset
//   - organize: apply a grouping config and write the organized tree
//
// All commands support --verbose (-v) for debug-level logging. Output
// locations default to directories that can be moved with the
// TILEKIT_SLICED_DIR and TILEKIT_ORGANIZED_DIR environment variables.
package cli

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilekit/pkg/buildinfo"
	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "tilekit"

	envSlicedDir    = "TILEKIT_SLICED_DIR"
	envOrganizedDir = "TILEKIT_ORGANIZED_DIR"
	envJobs         = "TILEKIT_JOBS"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Env    Env
}

// New creates a new CLI instance with a default logger. Environment
// defaults are read by [CLI.RootCommand].
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tilekit slices sprite sheets and organizes tiles into named groups",
		Long: `Tilekit turns a sprite sheet into a curated tileset.

Slice the sheet into a grid of tiles, inspect the result with an overview
contact sheet, then describe groups in a JSON or TOML config and let
'organize' write one directory per group with assembled layouts, edge-match
suggestions and a tileset.json index.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(os.Getenv)
			if err != nil {
				return err
			}
			c.Env = env
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.sliceCommand())
	root.AddCommand(c.overviewCommand())
	root.AddCommand(c.organizeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment
// =============================================================================

// Env holds defaults read from the environment.
type Env struct {
	SlicedDir    string // Parent directory for slice output
	OrganizedDir string // Parent directory for organize output
	Jobs         int    // Default --jobs; 0 means GOMAXPROCS
}

// LoadEnv reads tilekit's environment defaults through getenv.
func LoadEnv(getenv func(string) string) (Env, error) {
	env := Env{
		SlicedDir:    getenv(envSlicedDir),
		OrganizedDir: getenv(envOrganizedDir),
	}
	if v := getenv(envJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Env{}, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", envJobs, v)
		}
		env.Jobs = n
	}
	return env, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	return pipeline.NewRunner(c.Logger)
}
