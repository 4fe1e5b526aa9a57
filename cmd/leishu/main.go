// Package main provides the leishu command.
package main

import (
	"os"

	"github.com/leapstack-labs/leishu/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
