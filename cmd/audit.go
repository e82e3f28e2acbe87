package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the refresh and card toggle audit log",
}

var auditRefreshesCmd = &cobra.Command{
	Use:   "refreshes",
	Short: "List recent refreshes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(); err != nil {
			return err
		}
		records, err := provider.ListRefreshes(cmd.Context(), auditLimit)
		if err != nil {
			return fmt.Errorf("list refreshes: %w", err)
		}
		if len(records) == 0 && outputFormat == formatTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No refreshes recorded.")
			return nil
		}
		return render(cmd.OutOrStdout(), records, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "STARTED AT\tOK\tDURATION\tPRODUCTS\tCARDS\tENTRIES\tSNAPSHOT\tERROR")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					r.StartedAt.Local().Format(time.RFC3339), yesNo(r.Success),
					time.Duration(r.DurationMS)*time.Millisecond,
					r.Products, r.Cards, r.Entries, r.SnapshotID, r.Error)
			}
		})
	},
}

var auditTogglesCmd = &cobra.Command{
	Use:   "toggles",
	Short: "List recent card status changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(); err != nil {
			return err
		}
		records, err := provider.ListToggles(cmd.Context(), auditLimit)
		if err != nil {
			return fmt.Errorf("list toggles: %w", err)
		}
		if len(records) == 0 && outputFormat == formatTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No card status changes recorded.")
			return nil
		}
		return render(cmd.OutOrStdout(), records, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "CREATED AT\tPRODUCT\tUID\tACTIVE\tOPERATOR\tOK\tERROR")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.RFC3339), r.ProductID, r.UID,
					yesNo(r.Active), r.Operator, yesNo(r.Success), r.Error)
			}
		})
	},
}

func init() {
	auditCmd.PersistentFlags().IntVarP(&auditLimit, "limit", "n", 50, "maximum number of records")
	auditCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatTable, "output format: table, json or yaml")
	auditCmd.AddCommand(auditRefreshesCmd, auditTogglesCmd)
	rootCmd.AddCommand(auditCmd)
}
