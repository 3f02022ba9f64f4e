package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		Long: `Read messages from stdin and print the assistant's replies.
Each line is one message from --user. Type "exit" to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.Conversation()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			out := cmd.OutOrStdout()
			prompt := color.New(color.FgCyan).Sprint("> ")

			return chatLoop(in, out, prompt, func(text string) ([]string, error) {
				msgs, err := engine.Process(cmd.Context(), userID, text)
				if err != nil {
					return nil, err
				}
				var lines []string
				for _, m := range msgs {
					lines = append(lines, m.Text)
					if len(m.Options) > 0 {
						lines = append(lines, color.New(color.Faint).Sprint("["+strings.Join(m.Options, " | ")+"]"))
					}
				}
				return lines, nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID to chat as")
	cmd.MarkFlagRequired("user")
	return cmd
}

// chatLoop feeds each non-empty input line to handle until EOF or "exit".
// A handler error is printed and the loop continues.
func chatLoop(in io.Reader, out io.Writer, prompt string, handle func(string) ([]string, error)) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			fmt.Fprint(out, prompt)
			continue
		case "exit", "quit":
			return nil
		}

		lines, err := handle(text)
		if err != nil {
			errorColor.Fprintf(out, "error: %v\n", err)
		}
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
