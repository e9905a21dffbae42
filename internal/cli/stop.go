package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/harun/mcpgate/internal/daemon"
	"github.com/spf13/cobra"
)

var (
	stopTimeout int
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the mcpgate service",
	Long: `Stop the mcpgate service gracefully.
Sends SIGTERM to the service and waits for in-flight requests to drain.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().IntVar(&stopTimeout, "timeout", 30, "timeout in seconds to wait for the service to stop")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pidFile := cfg.PIDFile()

	pid, err := signalProcess(pidFile, syscall.SIGTERM)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(time.Duration(stopTimeout) * time.Second)
	for time.Now().Before(deadline) {
		if !daemon.IsRunning(pidFile) {
			cmd.Println("Service stopped successfully")
			os.Remove(pidFile)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	cmd.Println("Timeout reached, sending SIGKILL...")

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to send SIGKILL: %w", err)
	}

	os.Remove(pidFile)
	cmd.Println("Service killed")
	return nil
}

// signalProcess sends sig to the process recorded in pidFile
func signalProcess(pidFile string, sig os.Signal) (int, error) {
	if !daemon.IsRunning(pidFile) {
		return 0, fmt.Errorf("service is not running (PID file: %s)", pidFile)
	}

	pid, err := daemon.ReadPIDFile(pidFile)
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(sig); err != nil {
		return 0, fmt.Errorf("failed to send %s: %w", sig, err)
	}

	return pid, nil
}
