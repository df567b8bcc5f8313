package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/visitor-intel/internal/store"
)

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Inspect recorded visits",
}

var (
	visitsClientID string
	visitsHours    int
	visitsLimit    int
)

var visitsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List a client's visits from the last N hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hours := visitsHours
		if hours <= 0 {
			hours = cfg.Tracking.RecentHours
		}
		visits, err := st.ListVisits(ctx, store.VisitFilter{
			ClientID: visitsClientID,
			Since:    time.Now().Add(-time.Duration(hours) * time.Hour),
			Limit:    visitsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list visits")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tIP\tCOMPANY\tPAGE\tLOCATION")
		for _, v := range visits {
			page := ""
			if len(v.Pages) > 0 {
				page = v.Pages[0]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s, %s\n",
				v.Timestamp.Local().Format(time.DateTime), v.IPAddress, v.CompanyID, page,
				v.Location.City, v.Location.Country)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d visits in the last %dh\n", len(visits), hours)
		return nil
	},
}

func init() {
	visitsRecentCmd.Flags().StringVar(&visitsClientID, "client", "", "client ID (required)")
	visitsRecentCmd.Flags().IntVar(&visitsHours, "hours", 0, "look-back window (default from config)")
	visitsRecentCmd.Flags().IntVar(&visitsLimit, "limit", 100, "max visits to show")
	_ = visitsRecentCmd.MarkFlagRequired("client")
	visitsCmd.AddCommand(visitsRecentCmd)
	rootCmd.AddCommand(visitsCmd)
}
