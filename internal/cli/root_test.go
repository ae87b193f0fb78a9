package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hyperblame", cmd.Use)
	assert.Contains(t, cmd.Long, "ignored")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"blame", "szz", "diff-lines", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"repo", "C", "."},
		{"config", "", ""},
		{"db", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"blame", "szz"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			ignore := sub.Flags().Lookup("ignore")
			require.NotNil(t, ignore)
			assert.Equal(t, "i", ignore.Shorthand)

			for _, flag := range []string{"ignore-file", "no-default-ignores", "strict"} {
				assert.NotNil(t, sub.Flags().Lookup(flag), "missing --%s", flag)
			}
		})
	}

	blameCmd, _, err := cmd.Find([]string{"blame"})
	require.NoError(t, err)
	assert.NotNil(t, blameCmd.Flags().Lookup("porcelain"))

	szzCmd, _, err := cmd.Find([]string{"szz"})
	require.NoError(t, err)
	assert.NotNil(t, szzCmd.Flags().Lookup("rename-key"))
}

func TestRoot_InvalidFormat(t *testing.T) {
	res := execute(t, fixtureRepo(), "--format", "yaml", "blame", "main.py")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), "E008")
	assert.Contains(t, res.err.Error(), `invalid format "yaml"`)
}

func TestRoot_UnknownFlagIsCommandError(t *testing.T) {
	res := execute(t, fixtureRepo(), "blame", "main.py", "--frobnicate")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}
