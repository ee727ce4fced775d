// Package main is the entry point for the formquery CLI binary.
package main

import (
	"os"

	cli "formquery/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
