package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/mcpgate/internal/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasCommand(name string) bool {
	for _, c := range GetRootCmd().Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestServeCommand(t *testing.T) {
	t.Run("command exists", func(t *testing.T) {
		assert.True(t, hasCommand("serve"), "serve command should exist")
	})

	t.Run("help text", func(t *testing.T) {
		output, err := run(t, "serve", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "Start the mcpgate HTTP service")
	})

	t.Run("start alias", func(t *testing.T) {
		output, err := run(t, "start", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "serve")
	})

	t.Run("refuses to start twice", func(t *testing.T) {
		path := writeConfig(t, map[string]any{})
		dataDir := filepath.Dir(path)
		require.NoError(t, daemon.WritePIDFile(filepath.Join(dataDir, "mcpgate.pid"), os.Getpid()))

		_, err := run(t, "serve", "--config", path)
		assert.ErrorContains(t, err, "already running")
	})
}
