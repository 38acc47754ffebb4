package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"budgetvoice/internal/assistant"
	"budgetvoice/internal/cli"
	"budgetvoice/internal/dialogue"
	"budgetvoice/internal/narration"

	"github.com/spf13/cobra"
)

func init() {
	askCmd.Flags().String("style", "", "reply style (concise, detailed, factual)")
	rootCmd.AddCommand(sayCmd, replCmd, askCmd)
}

func newController() *dialogue.Controller {
	return dialogue.NewController(state.ledger, narration.NewWriterSink(os.Stdout),
		dialogue.WithFollowUpTimeout(state.cfg.FollowUpTimeout),
		dialogue.WithLogger(state.logger))
}

var sayCmd = &cobra.Command{
	Use:   "say <utterance>",
	Short: "Run one command as if it had been spoken",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newController().HandleUtterance(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if out.Kind == dialogue.Failed {
			return out.Err
		}
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Hold a dialogue on stdin; follow-up questions wait for the next line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := newController()
		if err := c.StartListening(ctx); err != nil {
			return err
		}
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "cancel", "stop":
				c.Cancel(ctx)
				continue
			case "quit", "exit":
				return nil
			}
			if _, err := c.HandleUtterance(ctx, line); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if ctx.Err() != nil {
				return nil
			}
		}
		return scanner.Err()
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the configured assistant a free-form question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cli.NewAssistant(cmd.Context(), state.cfg)
		if err != nil {
			return err
		}
		if backend == nil {
			return errors.New("assistant disabled; set ASSISTANT_BACKEND")
		}
		style, _ := cmd.Flags().GetString("style")
		conv := assistant.NewConversation(backend, narration.Discard, state.cfg.AssistantStyle, state.logger)
		reply, err := conv.Send(cmd.Context(), strings.Join(args, " "), style)
		fmt.Println(reply.ResponseText)
		return err
	},
}
