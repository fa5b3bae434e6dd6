package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/pipegraph/internal/build"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "pipegraph version "+build.Version)
}

func TestPipetypesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPipetypesCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Equal(t, []string{
		"as", "back", "except", "filter", "in", "merge", "out", "property", "take", "unique", "vertex",
	}, strings.Fields(out.String()))
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	root.AddCommand(NewVersionCommand(), NewPipetypesCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"pipetypes"})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "vertex")
}
