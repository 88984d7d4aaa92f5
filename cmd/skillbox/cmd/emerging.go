package cmd

import (
	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"

	"github.com/spf13/cobra"
)

func newEmergingCmd() *cobra.Command {
	var date, stockNo string

	cmd := &cobra.Command{
		Use:   "emerging",
		Short: "Prints the daily OHLC of an emerging-market stock from goodinfo.tw.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			result := newEmerging(v).Fetch(cmd.Context(), date, stockNo)
			if err := utils.WriteJSON(cmd.OutOrStdout(), result, false); err != nil {
				return err
			}
			if result.Failed() {
				return exitError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "trading day as YYYYMMDD")
	cmd.Flags().StringVar(&stockNo, "stockNo", "", "stock code, ex. 6610")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("stockNo")
	return cmd
}
