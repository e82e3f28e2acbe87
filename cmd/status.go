package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <product_id> <uid>",
	Short: "Show the latest reader status of a card on a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(); err != nil {
			return err
		}

		t, err := newTracker()
		if err != nil {
			return err
		}
		if _, err := t.Refresh(cmd.Context()); err != nil {
			return err
		}

		st, err := t.CardStatus(args[0], args[1])
		if err != nil {
			return err
		}

		return render(cmd.OutOrStdout(), st, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "Product\t%s\n", st.ProductID)
			fmt.Fprintf(tw, "Card\t%s\n", st.UID)
			fmt.Fprintf(tw, "Status\t%s\n", st.Status)
			if st.RawStatus != "" {
				fmt.Fprintf(tw, "Reader text\t%s\n", st.RawStatus)
			}
			if st.Timestamp != nil {
				fmt.Fprintf(tw, "Seen at\t%s\n", st.Timestamp.Format(time.RFC3339))
			}
			if st.Card != nil {
				fmt.Fprintf(tw, "Listed\tyes (%s, active: %s)\n", st.Card.Type, yesNo(st.Card.Active))
			} else {
				fmt.Fprintln(tw, "Listed\tno")
			}
			if st.PackageType != "" {
				fmt.Fprintf(tw, "Package\t%s\n", st.PackageType)
			}
		})
	},
}

func init() {
	statusCmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(statusCmd)
}
