package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/model"
)

var (
	batchClientID string
	batchIDs      []string
	batchLimit    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich companies in waves",
	Long:  "Enriches the given companies, or every not-yet-enriched company with a domain when --ids is omitted, pausing between waves to respect provider rate limits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ids := batchIDs
		if len(ids) == 0 {
			companies, err := env.Store.ListCompanies(ctx, batchClientID, batchLimit)
			if err != nil {
				return eris.Wrap(err, "list companies")
			}
			ids = pendingCompanyIDs(companies)
		}
		if len(ids) == 0 {
			zap.L().Info("no companies to enrich", zap.String("client_id", batchClientID))
			return nil
		}

		est := env.Enrich.Estimate(len(ids))
		zap.L().Info("starting batch",
			zap.Int("companies", est.Companies),
			zap.Int("waves", est.Waves),
			zap.Duration("estimated", est.Duration),
		)

		report, err := env.Enrich.BatchEnrich(ctx, batchClientID, ids)
		if report != nil {
			if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
		}
		return err
	},
}

// pendingCompanyIDs selects companies that have a domain and were never
// enriched.
func pendingCompanyIDs(companies []model.Company) []string {
	var ids []string
	for _, c := range companies {
		if c.Domain != "" && c.EnrichedAt == nil {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func init() {
	batchCmd.Flags().StringVar(&batchClientID, "client", "", "client ID (required)")
	batchCmd.Flags().StringSliceVar(&batchIDs, "ids", nil, "company IDs to enrich (default: all pending)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of pending companies to consider")
	_ = batchCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(batchCmd)
}
