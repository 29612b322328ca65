package main

import (
	"os"

	"github.com/btcnav/btcnav/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
