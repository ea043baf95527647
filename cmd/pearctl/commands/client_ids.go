package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var clientIDsCmd = &cobra.Command{
	Use:   "client-ids [CLIENT_ID...]",
	Short: "Run the full authentication flow for each client id and report which succeed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := args
		if len(ids) == 0 {
			ids = []string{cfg.ClientID}
		}

		results := make(map[string]bool, len(ids))
		for _, id := range ids {
			results[id] = testClientID(cmd.Context(), id)
		}

		fmt.Println("Summary")
		passed := 0
		for _, id := range ids {
			mark := "FAIL"
			if results[id] {
				mark = "PASS"
				passed++
			}
			fmt.Printf("  %s  %s\n", mark, id)
		}
		fmt.Printf("%d/%d client ids authenticated\n", passed, len(ids))

		if passed == 0 {
			return fmt.Errorf("no client id authenticated")
		}
		return nil
	},
}

// testClientID reports whether clientID can log in. Failures of the
// authenticated endpoints are logged but do not fail the client id.
func testClientID(ctx context.Context, clientID string) bool {
	logger := log.With().Str("client_id", clientID).Logger()

	client, err := newClient(true)
	if err != nil {
		logger.Error().Err(err).Msg("Client initialization failed")
		return false
	}
	logger.Info().Str("address", client.Address()).Msg("Client initialized")

	if client.TestConnection(ctx) {
		logger.Info().Msg("API connection successful")
	} else {
		logger.Warn().Msg("API connection test inconclusive")
	}

	if _, err := client.Login(ctx, clientID); err != nil {
		logger.Error().Err(err).Msg("Authentication failed")
		return false
	}
	tokens := client.Tokens()
	evt := logger.Info().
		Str("access_token", shorten(tokens.AccessToken)).
		Str("refresh_token", shorten(tokens.RefreshToken))
	if exp, ok := client.AccessTokenExpiry(); ok {
		evt = evt.Time("access_expires_at", exp)
	}
	evt.Msg("Authentication successful")

	if wallet, err := client.GetAgentWallet(ctx); err != nil {
		logger.Warn().Err(err).Msg("Agent wallet check failed")
	} else {
		logger.Info().Str("address", orNA(wallet.Address)).Str("status", orNA(wallet.Status)).Msg("Agent wallet retrieved")
	}

	builder := client.GetBuilderCode()
	logger.Info().Str("address", builder.Address).Str("note", builder.Note).Msg("Builder code info")

	if _, err := client.RefreshToken(ctx); err != nil {
		logger.Warn().Err(err).Msg("Token refresh failed")
	} else {
		logger.Info().Str("access_token", shorten(client.Tokens().AccessToken)).Msg("Token refresh successful")
	}

	if _, err := client.Logout(ctx); err != nil {
		logger.Warn().Err(err).Msg("Logout failed, local tokens cleared")
	} else {
		logger.Info().Msg("Logged out")
	}

	return true
}
