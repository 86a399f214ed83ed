package main

import (
	"fmt"

	"dompet/internal/models"

	"github.com/spf13/cobra"
)

var (
	resolveFamily string
	resolveID     uint
	resolveStatus string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Settle a pending record as success or failed",
	Long: `resolve only changes the record status. Check the card balances first:
settle as success when the ledger movement is present, as failed when it
is not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, cleanup, err := openService(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := svc.Resolve(ctx, resolveFamily, resolveID, models.Status(resolveStatus))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d is now %s\n", rec.Family, rec.ID, rec.Status)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFamily, "family", "", "topup, withdraw, transfer or transaction")
	resolveCmd.Flags().UintVar(&resolveID, "id", 0, "record id")
	resolveCmd.Flags().StringVar(&resolveStatus, "status", "", "success or failed")
	_ = resolveCmd.MarkFlagRequired("family")
	_ = resolveCmd.MarkFlagRequired("id")
	_ = resolveCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(resolveCmd)
}
