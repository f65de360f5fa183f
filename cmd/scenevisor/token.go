package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/scenevisor/internal/adapters/ws"
	"github.com/bft-labs/scenevisor/internal/cliconfig"
)

// newTokenCommand prints a bearer token accepted by the endpoints.
func newTokenCommand(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the lifecycle and renderer endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			if cfg.AuthSecret == "" {
				return fmt.Errorf("auth-secret is required to sign tokens")
			}
			token, err := ws.NewVerifier(cfg.AuthSecret).Sign(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "script-host", "token subject, logged on connect")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
