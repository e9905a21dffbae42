package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harun/mcpgate/internal/daemon"
	"github.com/harun/mcpgate/pkg/server"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service status",
	Long: `Show the current status of the mcpgate service.
Reads the PID file and queries the /health endpoint.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if pid, err := daemon.ReadPIDFile(cfg.PIDFile()); err == nil && daemon.IsRunning(cfg.PIDFile()) {
		cmd.Printf("PID: %d\n", pid)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	health, err := fetchHealth(ctx, cfg.Server.LocalBase)
	if err != nil {
		cmd.Println("Status: stopped")
		cmd.Printf("Health check: %v\n", err)
		return nil
	}

	cmd.Printf("Status: %s\n", health.Status)
	cmd.Printf("Uptime: %s\n", formatDuration(time.Duration(health.Uptime*float64(time.Second))))
	cmd.Printf("Tools: %s\n", strings.Join(health.Tools, ", "))

	return nil
}

func fetchHealth(ctx context.Context, base string) (*server.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}

	var health server.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("invalid health response: %w", err)
	}
	return &health, nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
