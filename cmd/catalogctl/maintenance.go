package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/service"
)

func newPurgeOrphansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-orphans",
		Short: "Delete tags no catalog entry links to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags := do.MustInvoke[*service.TagService](a.injector)
			n, err := tags.PurgeOrphanTags(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d orphan tags purged\n", n)
			return nil
		},
	}
}

func newPurgeTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tag <text>",
		Short: "Delete a tag and every link to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := do.MustInvoke[*service.TagService](a.injector)
			deleted, err := tags.PurgeTagByText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "no tag %q\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tag %q purged\n", args[0])
			return nil
		},
	}
}
