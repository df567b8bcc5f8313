package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/visitor-intel/internal/followup"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
)

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "List and resolve scheduled follow-ups",
}

var (
	followupClientID string
	followupStatus   string
)

var followupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List follow-ups, soonest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		list, err := followup.NewService(st).List(ctx, store.FollowUpFilter{
			ClientID: followupClientID,
			Status:   model.FollowUpStatus(followupStatus),
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tSCHEDULED\tSUBJECT")
		for _, f := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Type, f.Status, f.ScheduledAt.Local().Format(time.DateTime), f.Subject)
		}
		return w.Flush()
	},
}

func followupTransitionCmd(use, short string, fn func(*followup.Service) func(ctx context.Context, clientID, id string) (*model.FollowUp, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			f, err := fn(followup.NewService(st))(ctx, followupClientID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "follow-up %s %s\n", f.ID, f.Status)
			return nil
		},
	}
}

var (
	followupsCompleteCmd = followupTransitionCmd("complete", "Mark a pending follow-up completed",
		func(s *followup.Service) func(context.Context, string, string) (*model.FollowUp, error) { return s.Complete })
	followupsCancelCmd = followupTransitionCmd("cancel", "Cancel a pending follow-up",
		func(s *followup.Service) func(context.Context, string, string) (*model.FollowUp, error) { return s.Cancel })
)

func init() {
	followupsCmd.PersistentFlags().StringVar(&followupClientID, "client", "", "client ID (required)")
	_ = followupsCmd.MarkPersistentFlagRequired("client")
	followupsListCmd.Flags().StringVar(&followupStatus, "status", "", "filter by status (pending, completed, cancelled)")
	followupsCmd.AddCommand(followupsListCmd, followupsCompleteCmd, followupsCancelCmd)
	rootCmd.AddCommand(followupsCmd)
}
