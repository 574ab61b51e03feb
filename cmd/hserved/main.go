package main

import (
	"os"

	"github.com/hserve-org/hserve/cmd/hserved/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
