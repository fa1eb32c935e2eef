/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/ui"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message to the assistant and print the reply",
	Long: `Send a single message through the same pipeline as the chat command.

The conversation is saved, so a question the assistant asks can be answered
with another ask.

Examples:
  todochat ask "Create a task: Buy groceries due tomorrow"
  todochat ask "create anyway"
  todochat ask "List my tasks" --json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		reply := sess.Send(cmd.Context(), strings.Join(args, " "))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reply)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderReply(reply))
		if reply.IsError() {
			return errors.New(reply.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("json", false, "Print the reply as JSON")
}
