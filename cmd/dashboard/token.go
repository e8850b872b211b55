package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fezola/global-pay-connect-sub002/config"
	"github.com/fezola/global-pay-connect-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// tokenCmd issues a dashboard token signed with the configured JWT secret,
// for local use against a dev stack.
func tokenCmd() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token [merchant-id]",
		Short: "Issue a bearer token for a merchant (development)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merchantID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid merchant id: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not configured")
			}
			if expiry <= 0 {
				expiry = cfg.JWT.Expiry
			}

			tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, expiry, cfg.JWT.Issuer)
			token, expiresAt, err := tokenSvc.Generate(merchantID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default jwt.expiry)")
	return cmd
}
