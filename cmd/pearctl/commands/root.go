package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/layer-3/pear"
	"github.com/layer-3/pear/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	apiURLFlagName   = "api-url"
	clientIDFlagName = "client-id"
)

var cfg *config.Client

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "pearctl",
	Short:         "Log a wallet in to the Pear Protocol API and exercise its endpoints",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found, using environment variables")
		}
		cfg = config.LoadClient()
		if cfg.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		if url, _ := cmd.Flags().GetString(apiURLFlagName); url != "" {
			cfg.APIURL = url
		}
		if id, _ := cmd.Flags().GetString(clientIDFlagName); id != "" {
			cfg.ClientID = id
		}
	},
}

// Execute is the main function of `commands` package.
// Usually called by the `main.main()`.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String(apiURLFlagName, "", "API base URL (default $PEAR_API_URL)")
	rootCmd.PersistentFlags().String(clientIDFlagName, "", "Client id to log in with (default $PEAR_CLIENT_ID)")

	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(clientIDsCmd)
	rootCmd.AddCommand(builderCodeCmd)
	rootCmd.AddCommand(pingCmd)
}

// newClient builds a client from the loaded configuration. requireKey makes
// a missing WALLET_PRIVATE_KEY an error.
func newClient(requireKey bool) (*pear.Client, error) {
	if requireKey && cfg.WalletPrivateKey == "" {
		return nil, fmt.Errorf("%w: set the WALLET_PRIVATE_KEY environment variable", pear.ErrConfiguration)
	}

	return pear.New(pear.Config{
		BaseURL:    cfg.APIURL,
		PrivateKey: cfg.WalletPrivateKey,
		Address:    cfg.WalletAddress,
	},
		pear.WithLogger(log.Logger),
		pear.WithProbeTimeout(cfg.ProbeTimeout),
	)
}

func shorten(token string) string {
	if len(token) <= 50 {
		return token
	}
	return token[:50] + "..."
}
