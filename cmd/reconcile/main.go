package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Inspect and settle mutation records stuck in pending",
	Long: `reconcile lists topups, withdraws, transfers and merchant payments that
never reached success or failed, publishes them for follow-up, and lets an
operator settle a record once its ledger effect has been checked.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func main() {
	Execute()
}
