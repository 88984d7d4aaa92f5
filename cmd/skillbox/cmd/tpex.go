package cmd

import (
	"fmt"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/scrapers/tpex"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTpexCmd() *cobra.Command {
	var compact, asTable bool

	cmd := &cobra.Command{
		Use:   "tpex DATE CODE...",
		Short: "Prints the TPEX daily close quotes of the given stocks.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			report := newTpex(v).FetchQuotes(cmd.Context(), args[0], args[1:])
			if asTable {
				writeQuoteTable(cmd, report, args[1:])
				return nil
			}
			return utils.WriteJSON(cmd.OutOrStdout(), report, compact)
		},
	}
	cmd.Flags().BoolVar(&compact, "json", false, "print compact json")
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table instead of json")
	return cmd
}

func optional[T any](v *T, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func writeQuoteTable(cmd *cobra.Command, report tpex.QuoteReport, codes []string) {
	out := cmd.OutOrStdout()
	if report.Error != nil {
		fmt.Fprintf(out, "error (%s): %s\n", report.Error.Type, report.Error.Message)
	}

	t := utils.NewTable(out)
	t.SetTitle(fmt.Sprintf("TPEX %s (%s)", report.Date, report.DateROC))
	t.AppendHeader(table.Row{"Code", "Name", "Open", "High", "Low", "Close", "Change", "Change %", "Volume"})
	for i, q := range report.Stocks {
		if q == nil {
			t.AppendRow(table.Row{codes[i], "(not found)"})
			continue
		}
		t.AppendRow(table.Row{
			q.Code,
			q.Name,
			optional(q.Open, "%.2f"),
			optional(q.High, "%.2f"),
			optional(q.Low, "%.2f"),
			optional(q.Close, "%.2f"),
			optional(q.Change, "%+.2f"),
			optional(q.ChangePercent, "%+.2f%%"),
			optional(q.Volume, "%d"),
		})
	}
	t.Render()
}
