package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	cmd := GetRootCmd()

	assert.Equal(t, "docchat", cmd.Use)
	assert.Equal(t, version, cmd.Version)
	assert.NotEmpty(t, GetVersion())
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := GetRootCmd()

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range GetRootCmd().Commands() {
		names[sub.Name()] = true
	}

	require.True(t, names["serve"])
	require.True(t, names["models"])
}
