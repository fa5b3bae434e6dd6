package main

import (
	"os"

	"github.com/openfga/pipegraph/cmd"
	"github.com/openfga/pipegraph/cmd/query"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	queryCmd := query.NewQueryCommand()
	rootCmd.AddCommand(queryCmd)

	pipetypesCmd := cmd.NewPipetypesCommand()
	rootCmd.AddCommand(pipetypesCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
