package cmd

import (
	"fmt"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/institutional"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newInstitutionalCmd() *cobra.Command {
	var (
		date    string
		codes   []string
		code    string
		compact bool
		asTable bool
	)

	cmd := &cobra.Command{
		Use:   "institutional",
		Short: "Prints the net buy/sell of the institutional investors on TWSE and TPEX.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			report := newMerger(v).Fetch(cmd.Context(), date, institutional.NormalizeCodes(codes, code))
			if asTable {
				writeInstitutionalTable(cmd, report)
				return nil
			}
			return utils.WriteJSON(cmd.OutOrStdout(), report, compact)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "trading day as YYYYMMDD")
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "stock codes, all stocks of both markets when empty")
	cmd.Flags().StringVar(&code, "code", "", "a single stock code")
	cmd.Flags().BoolVar(&compact, "json", false, "print compact json")
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table instead of json")
	cmd.MarkFlagRequired("date")
	return cmd
}

func writeInstitutionalTable(cmd *cobra.Command, report institutional.Report) {
	out := cmd.OutOrStdout()
	if report.Error != nil {
		fmt.Fprintf(out, "error (%s): %s\n", report.Error.Type, report.Error.Message)
		return
	}

	t := utils.NewTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", report.Date, report.DateROC))
	t.AppendHeader(table.Row{"Code", "Name", "Market", "Foreign", "Investment Trust", "Dealer", "Total"})
	for _, item := range report.Items {
		t.AppendRow(table.Row{
			item.Code,
			item.Name,
			item.Market,
			optional(item.ForeignNet, "%d"),
			optional(item.InvestNet, "%d"),
			optional(item.DealerNet, "%d"),
			optional(item.TotalNet, "%d"),
		})
	}
	t.Render()

	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "missing: %v\n", report.Missing)
	}
}
