/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/josephgoksu/TodoChat/internal/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant to AI tools over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  chat        send a message to the assistant
  list_tasks  list open tasks, optionally filtered`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries JSON-RPC only.
		if viper.GetString("log.output") == "stdout" {
			viper.Set("log.output", "stderr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sess, cleanup, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		server := mcp.NewServer(sess, version, slog.Default())
		if err := mcp.Serve(ctx, server); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
