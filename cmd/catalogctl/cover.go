package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/service"
)

func newCoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cover <publication> <image-file>",
		Short: "Store an image file as a publication's cover",
		Long: `Cover decodes the image, writes every rendition to the cover storage and
points the publication at the new reference. Aggregates that show the
publication are invalidated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			directory := do.MustInvoke[*service.DirectoryService](a.injector)
			ref, err := directory.SetCover(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}
}
