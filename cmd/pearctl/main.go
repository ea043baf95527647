package main

import (
	"os"

	"github.com/layer-3/pear/cmd/pearctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
