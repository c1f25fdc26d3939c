package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/service"
)

func newAggregateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <user>",
		Short: "Print a user's aggregated catalog as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aggregates := do.MustInvoke[*service.AggregationService](a.injector)
			view, err := aggregates.Build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}
