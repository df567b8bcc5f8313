package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage tracking clients and their API keys",
}

var clientDomain string

var clientsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a client and issue its API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c, err := st.CreateClient(ctx, args[0], clientDomain)
		if err != nil {
			return eris.Wrap(err, "create client")
		}
		return printJSON(cmd.OutOrStdout(), c)
	},
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		clients, err := st.ListClients(ctx)
		if err != nil {
			return eris.Wrap(err, "list clients")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tACTIVE\tCREATED")
		for _, c := range clients {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", c.ID, c.Name, c.Domain, c.IsActive, c.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var clientsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Revoke a client's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeactivateClient(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "deactivate client %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "client %s deactivated\n", args[0])
		return nil
	},
}

func init() {
	clientsCreateCmd.Flags().StringVar(&clientDomain, "domain", "", "client website domain")
	clientsCmd.AddCommand(clientsCreateCmd, clientsListCmd, clientsDeactivateCmd)
	rootCmd.AddCommand(clientsCmd)
}
