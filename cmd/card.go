package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rfid-access-console/internal/tracker"
)

var cardOperator string

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage card status",
}

var cardToggleCmd = &cobra.Command{
	Use:   "toggle <product_id> <uid>",
	Short: "Enable a disabled card or disable an enabled one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, uid := args[0], args[1]

		t, err := newTracker()
		if err != nil {
			return err
		}
		if _, err := t.Refresh(cmd.Context()); err != nil {
			return err
		}

		st, err := t.CardStatus(productID, uid)
		if err != nil {
			return err
		}
		current := st.Card != nil && st.Card.Active

		ctx := tracker.WithOperator(cmd.Context(), cardOperator)
		card, err := t.ToggleCardStatus(ctx, productID, uid, current)
		if err != nil {
			return err
		}

		verb := "disabled"
		if card.Active {
			verb = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Card %s has been %s on %s.\n", card.UID, verb, productID)
		return nil
	},
}

func init() {
	cardToggleCmd.Flags().StringVar(&cardOperator, "operator", os.Getenv("USER"), "operator recorded in the audit log")
	cardCmd.AddCommand(cardToggleCmd)
	rootCmd.AddCommand(cardCmd)
}
