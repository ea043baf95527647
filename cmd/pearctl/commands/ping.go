package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the API host is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(false)
		if err != nil {
			return err
		}

		if !client.TestConnection(cmd.Context()) {
			return fmt.Errorf("%s is unreachable", cfg.APIURL)
		}
		fmt.Printf("%s is reachable\n", cfg.APIURL)
		return nil
	},
}
