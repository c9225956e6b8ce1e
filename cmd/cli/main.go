// Package main is the entry point for the mailmetrics CLI binary.
package main

import (
	"os"

	cli "mailmetrics/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
