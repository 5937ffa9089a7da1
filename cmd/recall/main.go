package main

import (
	"os"

	"github.com/recallkb/recall/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
