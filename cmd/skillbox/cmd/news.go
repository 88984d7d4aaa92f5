package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/scrapers/news"
	"skillbox/lib/osutil"

	"github.com/spf13/cobra"
)

type newsFlags struct {
	compact bool
	out     string
}

func (f *newsFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.compact, "json", false, "print compact json")
	cmd.Flags().StringVar(&f.out, "out", "", "also write the json to this file, ex. <task>/raw/cnyes/news.json")
}

// emit prints the headlines and, with --out, saves the same document to a
// file.
func (f *newsFlags) emit(cmd *cobra.Command, items []news.Item) error {
	if err := utils.WriteJSON(cmd.OutOrStdout(), items, f.compact); err != nil {
		return err
	}
	if f.out == "" {
		return nil
	}

	path, err := osutil.ExpandHome(f.out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := utils.WriteJSON(file, items, f.compact); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func newNewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Collects the latest Taiwan stock headlines of a financial news site.",
	}
	cmd.AddCommand(
		newNewsSiteCmd("cnyes", "Collects the tw_stock headlines of Anue (cnyes).", func(ctx context.Context, v *globals.Value) ([]news.Item, error) {
			return newCnyes(v).Fetch(ctx)
		}),
		newNewsSiteCmd("statementdog", "Collects the latest news of statementdog.", func(ctx context.Context, v *globals.Value) ([]news.Item, error) {
			return newStatementdog(v).Fetch(ctx)
		}),
		newMoneydjCmd(),
	)
	return cmd
}

type fetchNews func(ctx context.Context, v *globals.Value) ([]news.Item, error)

func newNewsSiteCmd(name, short string, fetch fetchNews) *cobra.Command {
	var flags newsFlags

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			items, err := fetch(cmd.Context(), v)
			if err != nil {
				return failed(cmd, err)
			}
			return flags.emit(cmd, items)
		},
	}
	flags.register(cmd)
	return cmd
}

func newMoneydjCmd() *cobra.Command {
	var (
		flags newsFlags
		pages int
	)

	cmd := &cobra.Command{
		Use:   "moneydj",
		Short: "Collects the taiwan stock news list of MoneyDJ.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			if !cmd.Flags().Changed("pages") {
				pages = v.Config.News.Moneydj.Pages
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be positive, got %d", pages)
			}

			items, err := newMoneydj(v, pages).Fetch(cmd.Context())
			if err != nil {
				return failed(cmd, err)
			}
			return flags.emit(cmd, items)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&pages, "pages", 0, "number of list pages to read (news.moneydj.pages by default)")
	return cmd
}
