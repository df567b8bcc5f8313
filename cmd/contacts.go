package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/contactimport"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage contacts",
}

var (
	importClientID string
	importFile     string
	importRegion   string
)

var contactsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import contacts from a CSV or XLSX export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client, err := st.GetClient(ctx, importClientID)
		if err != nil {
			return eris.Wrap(err, "get client")
		}
		if client == nil {
			return eris.Errorf("client %s not found", importClientID)
		}

		report, err := contactimport.NewImporter(st, importRegion).ImportFile(ctx, client.ID, importFile)
		if err != nil {
			return eris.Wrap(err, "import contacts")
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int("created", report.Created),
			zap.Int("skipped", len(report.Skipped)),
		)
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	contactsImportCmd.Flags().StringVar(&importClientID, "client", "", "client ID (required)")
	contactsImportCmd.Flags().StringVar(&importFile, "file", "", "path to .csv or .xlsx file (required)")
	contactsImportCmd.Flags().StringVar(&importRegion, "region", "US", "default phone region (ISO 3166 alpha-2)")
	_ = contactsImportCmd.MarkFlagRequired("client")
	_ = contactsImportCmd.MarkFlagRequired("file")
	contactsCmd.AddCommand(contactsImportCmd)
	rootCmd.AddCommand(contactsCmd)
}
