// Package main provides catalogctl, an operator tool that runs catalog
// operations directly against a server data directory.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/di"
)

// app holds the state shared by every subcommand.
type app struct {
	dataPath string
	envFile  string
	logLevel string

	injector *do.RootScope
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Operate on a catalog server data directory",
		Long: `catalogctl opens the catalog database and profile store of a server
data directory and runs maintenance operations against them. Stop the server
first; the profile store allows a single writer.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.dataPath, "data-path", "", "server data directory (default: DATA_PATH or ~/Shelfwise/data)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "path to .env file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSeedCmd(a),
		newTokenCmd(a),
		newAggregateCmd(a),
		newPurgeOrphansCmd(a),
		newPurgeTagCmd(a),
		newCoverCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// open builds the service container for the configured data directory.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	args := []string{"-env-file", a.envFile, "-log-level", a.logLevel}
	if a.dataPath != "" {
		args = append(args, "-data-path", a.dataPath)
	}

	a.injector = di.NewContainer(args)
	if err := di.BootstrapServices(a.injector); err != nil {
		_ = a.close()
		return fmt.Errorf("open data directory: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.injector == nil {
		return nil
	}
	injector := a.injector
	a.injector = nil
	// Close errors are not actionable once the command has finished.
	_ = injector.Shutdown()
	return nil
}

// printJSON writes v indented to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
