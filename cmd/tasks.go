/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/internal/ui"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:          "tasks",
	Short:        "List open Todoist tasks",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		filter, _ := cmd.Flags().GetString("filter")
		tasks, err := sess.Tasks(cmd.Context(), filter)
		if err != nil {
			return errors.New(todoist.UserMessage(err))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTasks(tasks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.Flags().StringP("filter", "f", "", "Only tasks whose content contains this text")
	tasksCmd.Flags().Bool("json", false, "Print tasks as JSON")
}
