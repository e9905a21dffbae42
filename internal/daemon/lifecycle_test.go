package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleManagerStartStop(t *testing.T) {
	d := newTestDaemon(t)
	lm := d.lifecycle

	assert.Equal(t, filepath.Join(d.config.DataDir, "mcpgate.pid"), lm.pidFile)

	require.NoError(t, lm.Start())

	pid, err := lm.GetPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, lm.IsRunning())

	require.NoError(t, lm.Stop())

	_, err = os.Stat(lm.pidFile)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, lm.IsRunning())

	// Removing twice is fine
	assert.NoError(t, lm.Stop())
}

func TestPIDFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("should round trip", func(t *testing.T) {
		path := filepath.Join(dir, "a.pid")
		require.NoError(t, WritePIDFile(path, 4242))

		pid, err := ReadPIDFile(path)
		require.NoError(t, err)
		assert.Equal(t, 4242, pid)
	})

	t.Run("should tolerate a trailing newline", func(t *testing.T) {
		path := filepath.Join(dir, "b.pid")
		require.NoError(t, os.WriteFile(path, []byte("17\n"), 0644))

		pid, err := ReadPIDFile(path)
		require.NoError(t, err)
		assert.Equal(t, 17, pid)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		path := filepath.Join(dir, "c.pid")
		require.NoError(t, os.WriteFile(path, []byte("invalid"), 0644))

		_, err := ReadPIDFile(path)
		assert.ErrorContains(t, err, "invalid PID file")
		assert.False(t, IsRunning(path))
	})

	t.Run("should report a missing file as not running", func(t *testing.T) {
		assert.False(t, IsRunning(filepath.Join(dir, "missing.pid")))
	})

	t.Run("should report the current process as running", func(t *testing.T) {
		path := filepath.Join(dir, "self.pid")
		require.NoError(t, WritePIDFile(path, os.Getpid()))
		assert.True(t, IsRunning(path))
	})
}
