// Package main is the canvasql command.
package main

import (
	"os"

	"github.com/leapstack-labs/canvasql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
