package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Log in, read the agent wallet and builder code, then log out",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(true)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		log.Info().Str("address", client.Address()).Str("client_id", cfg.ClientID).Msg("Logging in")
		if _, err := client.Login(ctx, cfg.ClientID); err != nil {
			log.Error().Err(err).Msg("Authentication failed")
			return nil
		}

		wallet, err := client.GetAgentWallet(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Agent wallet check failed")
		} else {
			log.Info().
				Str("status", orNA(wallet.Status)).
				Str("address", orNA(wallet.Address)).
				Msg("Agent wallet")
		}

		builder := client.GetBuilderCode()
		log.Info().Str("builder_address", builder.Address).Msg("Builder code")

		if _, err := client.Logout(ctx); err != nil {
			log.Error().Err(err).Msg("Logout failed, local tokens cleared")
			return nil
		}
		log.Info().Msg("Logged out successfully")

		return nil
	},
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
