package commands

import (
	"fmt"

	"github.com/layer-3/pear"
	"github.com/spf13/cobra"
)

var builderCodeCmd = &cobra.Command{
	Use:   "builder-code",
	Short: "Print the builder fee address trades are routed to",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := pear.New(pear.Config{BaseURL: cfg.APIURL})
		if err != nil {
			return err
		}

		builder := client.GetBuilderCode()
		fmt.Printf("Address: %s\nNote:    %s\n", builder.Address, builder.Note)
		return nil
	},
}
