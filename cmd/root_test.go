package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"test", "factor", "subfactor", "question", "answer", "structure", "export", "match", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "assess-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestQuestionRmCommand_RequiresConfirmFlag(t *testing.T) {
	flag := questionRmCmd.Flags().Lookup("yes")
	require.NotNil(t, flag, "question rm should have --yes flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "export command should have --format flag")
	assert.Equal(t, "yaml", flag.DefValue)
}
