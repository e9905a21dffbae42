package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harun/mcpgate/internal/daemon"
	"github.com/harun/mcpgate/pkg/agent"
	"github.com/harun/mcpgate/pkg/server"
	"github.com/spf13/cobra"
)

var askTimeout int

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run one query through the pipeline",
	Long: `Run a natural-language query through the pipeline once, using the
configured model endpoint and tool endpoints, and print the tool result or
the error as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTimeout, "timeout", 120, "overall timeout in seconds")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	orch, err := daemon.NewOrchestrator(cfg, log.GetZerolog(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(askTimeout)*time.Second)
	defer cancel()

	result, err := orch.Run(ctx, strings.Join(args, " "))
	if err != nil {
		writeIndented(cmd, askError(err))
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, result, "", "  "); err != nil {
		out.Reset()
		out.Write(result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())

	return nil
}

func askError(err error) server.ErrorResponse {
	resp := server.ErrorResponse{
		Error:     err.Error(),
		ErrorType: string(agent.KindOf(err)),
		Status:    "error",
	}
	var ae *agent.Error
	if errors.As(err, &ae) {
		resp.Error = ae.Message
		resp.Details = ae.Details
	}
	return resp
}

func writeIndented(cmd *cobra.Command, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}
