package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfga/pipegraph/pkg/traversal"
)

// NewPipetypesCommand returns the command listing the registered pipetypes.
func NewPipetypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pipetypes",
		Short: "List the available pipetypes",
		Long:  "List the pipetypes queries can use, in lexical order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range traversal.NewBuiltinRegistry().Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
