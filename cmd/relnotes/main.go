package main

import (
	"os"

	"github.com/marcin-skalski/relnotes/cmd/relnotes/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
