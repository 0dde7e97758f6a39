// Command soralvi records sorting algorithms written in Lua and replays them
// step by step.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/soralvi/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
