package mcp //nolint:testpackage // testing internal implementation.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersAllTools(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})
	require.NotNil(t, srv)

	assert.Equal(t, []string{ToolNameClassify, ToolNameTrace}, srv.ListToolNames())
}
