package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat"
)

// threadID names the conversation for ask and chat
var threadID string

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	askCmd.Flags().StringVar(&threadID, "thread", "", "conversation thread (default thread when empty)")
	chatCmd.Flags().StringVar(&threadID, "thread", "", "conversation thread (default thread when empty)")
}

var askCmd = &cobra.Command{
	Use:   "ask <document-id> <question>...",
	Short: "Ask one question about a document",
	Long: `Ask one question about a document. The question joins the remaining
arguments. Turns on the same --thread share conversation memory.

Examples:
  pdfchatctl ask 2f6c0d9e-... "What is the invoice total?"
  pdfchatctl ask --thread billing 2f6c0d9e-... when is it due`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat <document-id>",
	Short: "Ask questions interactively, one per line",
	Long: `Read questions from stdin, one per line, and print each answer.
An empty line or EOF ends the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

type answerOutput struct {
	Answer    string `json:"answer"`
	Failed    bool   `json:"failed"`
	Rounds    int    `json:"rounds"`
	ToolCalls int    `json:"tool_calls"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	question := strings.Join(args[1:], " ")
	ans, err := client.Ask(ctx, threadID, args[0], question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	return printAnswer(cmd.OutOrStdout(), ans)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	return chatLoop(cmd.InOrStdin(), cmd.OutOrStdout(), func(question string) (pdfchat.Answer, error) {
		return client.Ask(ctx, threadID, args[0], question)
	})
}

// chatLoop feeds each non-empty line of in to ask until a blank line or EOF.
func chatLoop(in io.Reader, out io.Writer, ask func(string) (pdfchat.Answer, error)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if !outputJSON {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}
		ans, err := ask(question)
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		if ans.Failed {
			log.Warn("turn failed", zap.String("thread_id", threadID), zap.Int("rounds", ans.Rounds))
		}
		if err := printAnswer(out, ans); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func printAnswer(out io.Writer, ans pdfchat.Answer) error {
	if outputJSON {
		return printJSON(out, answerOutput{
			Answer:    ans.Text,
			Failed:    ans.Failed,
			Rounds:    ans.Rounds,
			ToolCalls: ans.ToolCalls,
		})
	}
	_, err := fmt.Fprintln(out, ans.Text)
	return err
}
