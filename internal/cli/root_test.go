package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		output, err := run(t, "--version")
		require.NoError(t, err)

		assert.Contains(t, output, "mcpgate version")
		assert.Contains(t, output, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		output, err := run(t, "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "mcpgate")
		assert.Contains(t, output, "tool")
		for _, name := range []string{"serve", "stop", "status", "ask", "config"} {
			assert.Contains(t, output, name)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		configFlag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
		require.NotNil(t, logLevelFlag)
		assert.Equal(t, "", logLevelFlag.DefValue)
	})
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply the log level override", func(t *testing.T) {
		cfgFile = writeConfig(t, map[string]any{"logging": map[string]any{"level": "warn"}})
		logLevel = "debug"
		t.Cleanup(func() { cfgFile, logLevel = "", "" })

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("should surface validation errors", func(t *testing.T) {
		cfgFile = writeConfig(t, map[string]any{"server": map[string]any{"port": 70000}})
		t.Cleanup(func() { cfgFile = "" })

		_, err := loadConfig()
		assert.ErrorContains(t, err, "invalid configuration")
	})
}
