package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/backup"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <user> <archive.zip>",
		Short: "Export a user's catalog, tags and profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create archive: %w", err)
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()

			svc := do.MustInvoke[*backup.Service](a.injector)
			manifest, err := svc.Export(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), manifest)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Merge an exported catalog into a user's catalog",
		Long: `Import restores entries, tag groups and profile attributes from an archive
made by export. Archived rows overwrite local ones; local rows missing from the
archive are kept. Use --user to restore into a different catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat archive: %w", err)
			}

			svc := do.MustInvoke[*backup.Service](a.injector)
			manifest, err := svc.Import(cmd.Context(), f, info.Size(), user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), manifest)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "target user (default: the archive's user)")
	return cmd
}
