// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with PIPEGRAPH, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PIPEGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/pipegraph", "$HOME/.pipegraph", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	return &cobra.Command{
		Use:   "pipegraph",
		Short: "A lazy, pipe-based traversal engine for property graphs",
		Long: `A lazy, pipe-based traversal engine for property graphs.

Queries are chains of pipetypes such as vertex, out, filter and take. They are evaluated
one result at a time against a graph loaded from a YAML or JSON document.`,
		SilenceUsage: true,
	}
}
