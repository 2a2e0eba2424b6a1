// Package main is the entry point for the LeapMap CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
