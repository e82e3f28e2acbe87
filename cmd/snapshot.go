package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rfid-access-console/internal/access"
)

var snapshotCmd = &cobra.Command{
	Use:       "snapshot [products|packages|roster|universal|summary]",
	Short:     "Fetch and reconcile the current access state",
	Long:      `Fetches every collection from the backend, reconciles them and prints one view of the result.`,
	ValidArgs: []string{"products", "packages", "roster", "universal", "summary"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(); err != nil {
			return err
		}

		t, err := newTracker()
		if err != nil {
			return err
		}
		snap, err := t.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		view := "summary"
		if len(args) == 1 {
			view = args[0]
		}
		return printSnapshot(cmd.OutOrStdout(), snap, view)
	},
}

func printSnapshot(w io.Writer, snap *access.Snapshot, view string) error {
	switch view {
	case "products":
		views := snap.Views()
		return render(w, views, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "PRODUCT\tROOM\tVIP\tCARDS\tACTIVE\tGUESTS")
			for _, p := range views {
				active := 0
				for _, c := range p.Cards {
					if c.Active {
						active++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", p.ProductID, p.RoomName, yesNo(p.VIP), len(p.Cards), active, len(p.Guests))
			}
		})

	case "packages":
		return render(w, snap.Packages, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "PACKAGE\tUID\tTYPE\tACTIVE\tPRODUCTS")
			for _, pt := range snap.Packages.Types() {
				for _, c := range snap.Packages[pt] {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", pt, c.UID, c.Type, yesNo(c.Active), joinOrDash(c.Products))
				}
			}
		})

	case "roster":
		return render(w, snap.Roster, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "UID\tNAME\tPACKAGE\tROLE\tPRODUCTS\tROOMS")
			for _, p := range snap.Roster {
				role := p.Role
				if role == "" {
					role = "guest"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.UID, p.Name, p.PackageType, role, joinOrDash(p.LinkedProducts), joinOrDash(p.AccessRooms))
			}
		})

	case "universal":
		return render(w, snap.Universal, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "KIND\tUID\tACTIVE")
			for _, c := range snap.Universal.MasterCards {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", access.PackageMasterCard, c.UID, yesNo(c.Active))
			}
			for _, c := range snap.Universal.ServiceCards {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", access.PackageServiceCard, c.UID, yesNo(c.Active))
			}
		})

	default:
		out := struct {
			ID        string         `json:"id" yaml:"id"`
			FetchedAt time.Time      `json:"fetched_at" yaml:"fetched_at"`
			Summary   access.Summary `json:"summary" yaml:"summary"`
		}{snap.ID, snap.FetchedAt, snap.Summary}
		return render(w, out, func(tw *tabwriter.Writer) {
			s := snap.Summary
			fmt.Fprintf(tw, "Snapshot\t%s\n", snap.ID)
			fmt.Fprintf(tw, "Fetched at\t%s\n", snap.FetchedAt.Format(time.RFC3339))
			fmt.Fprintf(tw, "Products\t%d\n", s.TotalProducts)
			fmt.Fprintf(tw, "VIP products\t%d\n", s.VIPProducts)
			fmt.Fprintf(tw, "Cards\t%d\n", s.TotalCards)
			fmt.Fprintf(tw, "Guests\t%d\n", s.TotalGuests)
			fmt.Fprintf(tw, "Managers\t%d\n", s.TotalManagers)
			fmt.Fprintf(tw, "Status records\t%d\n", s.StatusRecords)
		})
	}
}

func init() {
	snapshotCmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(snapshotCmd)
}
