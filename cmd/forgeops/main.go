// Package main provides the entry point for forgeops
package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/Didstopia/forgeops/internal/cli"
)

// Version information - set via ldflags at build time
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, buildDate)

	cli.Execute()
}
