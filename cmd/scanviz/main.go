// Command scanviz animates port-scanning techniques in the terminal and
// serves the visualizer API.
package main

import "github.com/anstrom/scanviz/cmd/cli"

// Build information - set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
