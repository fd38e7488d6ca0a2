package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
)

func newTokenCommand() *cobra.Command {
	var secret, userID, role, org string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := interceptors.IssueToken([]byte(secret), userID, role, org, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret of the server (required)")
	_ = cmd.MarkFlagRequired("secret")
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&role, "role", "member", "role claim")
	cmd.Flags().StringVar(&org, "org", "", "organization claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
