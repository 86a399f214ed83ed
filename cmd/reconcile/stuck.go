package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"dompet/internal/services/reconcile"

	"github.com/spf13/cobra"
)

var (
	stuckOlderThan time.Duration
	stuckFamily    string
	stuckPublish   bool
)

var stuckCmd = &cobra.Command{
	Use:   "stuck",
	Short: "List records still pending after a grace period",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, cleanup, err := openService(ctx, stuckPublish)
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := svc.Stuck(ctx, stuckFamily, stuckOlderThan)
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), records)

		if stuckPublish && len(records) > 0 {
			if err := svc.Publish(ctx, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d reconciliation events\n", len(records))
		}
		return nil
	},
}

func printRecords(out io.Writer, records []reconcile.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "no stuck records")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tID\tCARDS\tAMOUNT\tSTATUS\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n",
			r.Family, r.ID, strings.Join(r.Cards, ","), r.Amount, r.Status, r.CreatedAt.UTC().Format(time.RFC3339))
	}
	w.Flush()
}

func init() {
	stuckCmd.Flags().DurationVar(&stuckOlderThan, "older-than", 10*time.Minute, "only records created before now minus this duration")
	stuckCmd.Flags().StringVar(&stuckFamily, "family", "", "topup, withdraw, transfer or transaction (default all)")
	stuckCmd.Flags().BoolVar(&stuckPublish, "publish", false, "publish a reconciliation event per record")
	rootCmd.AddCommand(stuckCmd)
}
