package main

import (
	"os"

	"github.com/recall-dev/recall/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
