// Package main provides the entry point for linkgate-cli.
package main

import (
	"os"

	"github.com/yndnr/linkgate-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
