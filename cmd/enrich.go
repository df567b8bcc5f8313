package main

import (
	"github.com/spf13/cobra"
)

var (
	enrichClientID  string
	enrichCompanyID string
	enrichEmail     string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich one company, or look up one contact by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if enrichEmail != "" {
			details, err := env.Enrich.EnrichContact(ctx, enrichEmail)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), details)
		}

		out, err := env.Enrich.EnrichCompany(ctx, enrichClientID, enrichCompanyID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichClientID, "client", "", "client ID")
	enrichCmd.Flags().StringVar(&enrichCompanyID, "company", "", "company ID")
	enrichCmd.Flags().StringVar(&enrichEmail, "email", "", "look up a single contact instead")
	enrichCmd.MarkFlagsRequiredTogether("client", "company")
	enrichCmd.MarkFlagsOneRequired("company", "email")
	enrichCmd.MarkFlagsMutuallyExclusive("company", "email")
	rootCmd.AddCommand(enrichCmd)
}
