// Package main is the worklog command line entry point.
package main

import (
	"os"

	"github.com/thebtf/worklog/internal/cli"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(cli.Execute(Version))
}
