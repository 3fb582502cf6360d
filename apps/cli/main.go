package main

import (
	"github.com/abdul-hamid-achik/reqpace/apps/cli/cmd"
)

// Set via ldflags at build time
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
