package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopCommand(t *testing.T) {
	t.Run("command exists", func(t *testing.T) {
		assert.True(t, hasCommand("stop"), "stop command should exist")
	})

	t.Run("help text", func(t *testing.T) {
		output, err := run(t, "stop", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "Stop the mcpgate service")
		assert.Contains(t, output, "timeout")
	})

	t.Run("fails when nothing runs", func(t *testing.T) {
		_, err := run(t, "stop", "--config", writeConfig(t, map[string]any{}))
		assert.ErrorContains(t, err, "not running")
	})
}
