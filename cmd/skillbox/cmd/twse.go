package cmd

import (
	"strings"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/scrapers/twse"
	"skillbox/pkg/twdata"

	"github.com/spf13/cobra"
)

func newTwseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "twse [DATE] [CODE|ALL]",
		Short: "Prints the TWSE daily trading document of a stock, or of the whole market with ALL.",
		Long: "Prints the TWSE daily trading document of a stock, or of the whole market with ALL.\n" +
			"DATE defaults to today and CODE to ALL.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			date := twdata.FormatYMD(v.Time.Now())
			if len(args) > 0 {
				date = args[0]
			}
			code := "ALL"
			if len(args) > 1 {
				code = args[1]
			}

			client := newTwse(v)
			var (
				doc twse.Document
				err error
			)
			if isWholeMarket(code) {
				doc, err = client.FetchMarketDaily(cmd.Context(), date)
			} else {
				doc, err = client.FetchStockDay(cmd.Context(), date, code)
			}
			if err != nil {
				return failed(cmd, err)
			}
			return utils.WriteJSON(cmd.OutOrStdout(), doc, false)
		},
	}
}

func isWholeMarket(code string) bool {
	code = strings.ToUpper(code)
	return code == "ALL" || code == "ALLBUT0999"
}
