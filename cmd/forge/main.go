// Command forge surveys source repositories into a typed knowledge graph
// and slices it into token-budgeted context for LLM consumption.
package main

import (
	"fmt"
	"os"

	"github.com/forgekit-dev/forge/internal/cli"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	root := cli.NewRootCommand()
	root.Version = Version
	root.SetVersionTemplate(`forge {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
