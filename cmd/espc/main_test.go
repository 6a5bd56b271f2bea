package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandMetadata(t *testing.T) {
	cmd := newRootCommand()
	require.Equal(t, "espc", cmd.Use)
	require.Equal(t, "0.1.0", cmd.Version)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["compile"])
	require.True(t, names["scan"])
	require.True(t, names["diff"])
}

func TestCompileCommandRequiresAtLeastOneFile(t *testing.T) {
	cmd := newCompileCommand()
	require.Error(t, cmd.Args(cmd, nil))
}

func TestScanCommandAcceptsAtMostOneArg(t *testing.T) {
	cmd := newScanCommand()
	require.NoError(t, cmd.Args(cmd, nil))
	require.NoError(t, cmd.Args(cmd, []string{"./dir"}))
	require.Error(t, cmd.Args(cmd, []string{"a", "b"}))
}

func TestDiffCommandRequiresExactlyOneFile(t *testing.T) {
	cmd := newDiffCommand()
	require.Error(t, cmd.Args(cmd, nil))
	require.NoError(t, cmd.Args(cmd, []string{"a.esp"}))
	require.Error(t, cmd.Args(cmd, []string{"a.esp", "b.esp"}))
}
