// budgetctl drives the ledger and the dialogue from a terminal: typed
// commands go through the same parser and controller the voice server uses.
package main

import (
	"context"
	"fmt"
	"os"

	"budgetvoice/internal/cli"
	"budgetvoice/internal/config"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/log"

	"github.com/spf13/cobra"
)

// app holds what every subcommand shares once the root pre-run has opened
// the ledger.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	ledger *ledger.Ledger
}

var state app

var rootCmd = &cobra.Command{
	Use:          "budgetctl",
	Short:        "Track expenses and the running budget from the command line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		state.logger = cli.SetupLogger(level)
		state.cfg = config.Load()
		if err := state.cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		l, err := cli.OpenLedger(cmd.Context(), state.cfg, state.logger)
		if err != nil {
			return err
		}
		if w := l.Warning(); w != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		}
		state.ledger = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if state.ledger == nil {
			return nil
		}
		return state.ledger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	cli.LoadEnvFile()
	ctx, cancel := cli.ShutdownContext(context.Background(), cli.SetupLogger("error"))
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
