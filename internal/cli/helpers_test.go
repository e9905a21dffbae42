package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, values map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	if _, ok := values["data_dir"]; !ok {
		values["data_dir"] = dir
	}
	data, err := json.Marshal(values)
	require.NoError(t, err)

	path := filepath.Join(dir, "mcpgate.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// run executes the root command with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := GetRootCmd()
	cmd.SetArgs(args)

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(io.Discard)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
		cfgFile = ""
		logLevel = ""
		// cobra does not reset flag values between Execute calls
		for _, c := range append(cmd.Commands(), cmd) {
			if f := c.Flags().Lookup("help"); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
	})

	err := cmd.Execute()
	return output.String(), err
}
