package main

import (
	"time"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/utils"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a tenant user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := utils.GenerateToken(cfg.JWTSecret, opts.Tenant, user, role, ttl)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "admin", "user id placed in the token")
	cmd.Flags().StringVar(&role, "role", "", "optional role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
