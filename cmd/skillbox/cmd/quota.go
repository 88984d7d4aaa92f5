package cmd

import (
	"fmt"

	"skillbox/cmd/skillbox/globals"
	"skillbox/cmd/skillbox/utils"
	"skillbox/internal/quota"

	"github.com/spf13/cobra"
)

func newQuotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Checks the remaining model quota of AI coding assistant accounts.",
	}
	cmd.AddCommand(
		newQuotaBatchCmd(),
		newQuotaAntigravityCmd(),
		newQuotaCodexCmd(),
	)
	return cmd
}

func newQuotaBatchCmd() *cobra.Command {
	var (
		asJSON   bool
		provider string
	)

	cmd := &cobra.Command{
		Use:   "batch <auth_profiles_path>",
		Short: "Checks every Antigravity and Codex account of an auth-profiles.json file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			accounts, err := quota.LoadProfiles(args[0])
			if err != nil {
				return err
			}
			accounts = quota.FilterProvider(accounts, quota.Provider(provider))
			if len(accounts) == 0 {
				if provider != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "No %s accounts found\n", provider)
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "No accounts found in auth-profiles.json")
				}
				return exitError{code: 1}
			}

			checker := quota.NewChecker(newQuotaClient(v), v.Time, v.Config.Quota.Workers, v.Tel)
			results := checker.CheckAll(cmd.Context(), accounts)

			if asJSON {
				return utils.WriteJSON(cmd.OutOrStdout(), results, false)
			}
			quota.WriteBatchReport(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	cmd.Flags().StringVar(&provider, "provider", "", "only check accounts of this provider (google-antigravity or openai-codex)")
	return cmd
}

func newQuotaAntigravityCmd() *cobra.Command {
	var (
		asJSON    bool
		projectID string
	)

	cmd := &cobra.Command{
		Use:   "antigravity <token>",
		Short: "Checks the model quotas of a Google Antigravity access token.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			quotas, err := newQuotaClient(v).Antigravity(cmd.Context(), args[0], projectID)
			if err != nil {
				return failed(cmd, err)
			}
			if asJSON {
				return utils.WriteJSON(cmd.OutOrStdout(), quotas, false)
			}
			quota.WriteAntigravityTable(cmd.OutOrStdout(), quotas)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	cmd.Flags().StringVar(&projectID, "project-id", "", "google cloud project of the token")
	return cmd
}

func newQuotaCodexCmd() *cobra.Command {
	var (
		asJSON    bool
		accountID string
	)

	cmd := &cobra.Command{
		Use:   "codex <token>",
		Short: "Checks the rate limit windows of an OpenAI Codex access token.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			usage, err := newQuotaClient(v).Codex(cmd.Context(), args[0], accountID, true)
			if err != nil {
				return failed(cmd, err)
			}
			if asJSON {
				return utils.WriteJSON(cmd.OutOrStdout(), usage, false)
			}
			quota.WriteCodexUsage(cmd.OutOrStdout(), usage)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	cmd.Flags().StringVar(&accountID, "account-id", "", "chatgpt account id, read from the token when empty")
	return cmd
}
