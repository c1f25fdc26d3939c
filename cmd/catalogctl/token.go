package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/catalog-server/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var root bool

	cmd := &cobra.Command{
		Use:   "token <user>",
		Short: "Issue an access token",
		Long: `Token signs an access token with the server key of the data directory.
Root tokens may act on every catalog and run purges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := do.MustInvoke[*auth.TokenService](a.injector)
			token, err := tokens.GenerateAccessToken(args[0], root)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&root, "root", false, "issue a root token")
	return cmd
}
