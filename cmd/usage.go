package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/visitor-intel/internal/enrich"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show provider quota usage for the current month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		usage, err := enrich.NewQuota(st, quotaLimits()).Usage(ctx)
		if err != nil {
			return err
		}
		return writeUsage(cmd, usage)
	},
}

func writeUsage(cmd *cobra.Command, usage []enrich.ProviderUsage) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tPERIOD\tUSED\tLIMIT\tREMAINING")
	for _, u := range usage {
		limit, remaining := fmt.Sprint(u.Limit), fmt.Sprint(u.Remaining)
		if u.Limit <= 0 {
			limit, remaining = "-", "unlimited"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", u.Provider, u.Period, u.Used, limit, remaining)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
