package main

import (
	"os"

	"github.com/Pflanzmann/SharkShiver/cmd/shiver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
