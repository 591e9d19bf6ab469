// Package main provides the leapsieve command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapsieve/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
