package commands //nolint:testpackage // testing internal implementation.

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMCPCommand(t *testing.T) {
	t.Parallel()

	cmd := NewMCPCommand()

	assert.Equal(t, "mcp", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestInitMCPObservability(t *testing.T) {
	t.Parallel()

	providers, err := initMCPObservability(true)
	require.NoError(t, err)

	assert.NotNil(t, providers.Logger)
	assert.True(t, providers.Logger.Enabled(t.Context(), slog.LevelDebug))
}
