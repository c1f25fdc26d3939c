package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/id"
	"github.com/shelfwise/catalog-server/internal/service"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		count   int
		owner   string
		curator string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample publications and catalog entries",
		Long: `Seed creates publications with fresh ids in the directory. With --owner the
user becomes a member of each, so their aggregate discovers them. With
--curator each publication is added to that user's catalog and tagged in
group 1 with the --tag values.

Example:
  catalogctl seed --count 5 --owner alice --curator bob --tag mystery --tag "young adult"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive")
			}
			ctx := cmd.Context()
			directory := do.MustInvoke[*service.DirectoryService](a.injector)
			catalog := do.MustInvoke[*service.CatalogService](a.injector)
			tagService := do.MustInvoke[*service.TagService](a.injector)

			ids := make([]string, 0, count)
			for n := 1; n <= count; n++ {
				p, err := directory.UpsertPublication(ctx, &domain.Publication{
					ID:              id.NewPublicationID(),
					Name:            fmt.Sprintf("Sample Press %d", n),
					Public:          true,
					MetadataVersion: domain.MinCoverMetadataVersion,
					Title:           fmt.Sprintf("Sample Title %d", n),
					AboutShort:      "Seeded by catalogctl",
				})
				if err != nil {
					return fmt.Errorf("create publication: %w", err)
				}
				if owner != "" {
					if err := directory.AddMember(ctx, p.ID, owner, "owner"); err != nil {
						return fmt.Errorf("add owner: %w", err)
					}
				}
				ids = append(ids, p.ID)
			}

			if curator != "" {
				if err := catalog.AddPublications(ctx, curator, ids); err != nil {
					return fmt.Errorf("add to catalog: %w", err)
				}
				for _, pid := range ids {
					if _, err := tagService.ReplaceTagsForGroup(ctx, curator, pid, 1, tags); err != nil {
						return fmt.Errorf("tag %s: %w", pid, err)
					}
				}
			}

			for _, pid := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), pid)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "number of publications to create")
	cmd.Flags().StringVar(&owner, "owner", "", "user linked to every publication as owner")
	cmd.Flags().StringVar(&curator, "curator", "", "user whose catalog receives every publication")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "group 1 tag applied to every curated entry")
	return cmd
}
