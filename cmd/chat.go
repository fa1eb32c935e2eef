/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/josephgoksu/TodoChat/internal/assistant"
	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/internal/ui"
	"github.com/josephgoksu/TodoChat/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// chatSession is the part of *session.Session the REPL drives.
type chatSession interface {
	Send(ctx context.Context, text string) assistant.Reply
	Tasks(ctx context.Context, filter string) ([]models.Task, error)
	History() []models.Message
	Reset(ctx context.Context)
}

const chatHelp = `Meta-commands:
  /tasks [filter]  list open tasks
  /history         show the saved conversation
  /reset           forget the conversation and anything waiting for an answer
  /quit            leave`

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Start an interactive chat with your Todoist assistant",
	Long:         "Start a chat session. The conversation is saved between runs.\n\n" + chatHelp,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sess, cleanup, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		return chatLoop(ctx, sess, cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatLoop reads one message per line until EOF, /quit or ctx is done.
// Prompts and the banner are only printed when interactive.
func chatLoop(ctx context.Context, sess chatSession, in io.Reader, out io.Writer, interactive bool) error {
	if interactive {
		fmt.Fprintln(out, ui.RenderHeader("TodoChat", "Type /help for commands, /quit to leave."))
		fmt.Fprintln(out, ui.RenderHistory(sess.History()))
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if interactive {
			fmt.Fprint(out, ui.StylePrefixUser.Render("you › "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runMetaCommand(ctx, sess, line, out); quit {
				return nil
			}
			continue
		}
		fmt.Fprintln(out, ui.RenderReply(sess.Send(ctx, line)))
	}
}

// runMetaCommand handles a /command and reports whether the loop should end.
func runMetaCommand(ctx context.Context, sess chatSession, line string, out io.Writer) bool {
	name, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return true
	case "/reset":
		sess.Reset(ctx)
		fmt.Fprintln(out, ui.StyleSubtle.Render("Conversation cleared."))
	case "/tasks":
		tasks, err := sess.Tasks(ctx, strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintln(out, ui.StyleError.Render("Could not list tasks: "+todoist.UserMessage(err)))
			break
		}
		fmt.Fprintln(out, ui.RenderTasks(tasks))
	case "/history":
		fmt.Fprintln(out, ui.RenderHistory(sess.History()))
	case "/help":
		fmt.Fprintln(out, chatHelp)
	default:
		fmt.Fprintln(out, ui.StyleWarning.Render(fmt.Sprintf("Unknown command %s. Try /help.", name)))
	}
	return false
}
