// Command nexus is the CLI entry point: a thin wrapper around
// internal/cli that exists so build-time ldflags have a package-level
// var to stamp with the release version.
package main

import "github.com/andrewmcadoo/nexus/internal/cli"

var version = "dev"

func main() {
	cli.Version = version
	cli.Main()
}
