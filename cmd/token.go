package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rfid-access-console/internal/jwt"
)

var tokenTTL time.Duration

func newSigner() (*jwt.Signer, error) {
	return jwt.NewSigner(cfg.Auth.Secret, cfg.Auth.TokenTTL)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage operator tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <operator>",
	Short: "Issue an operator token for the API",
	Long: `Issues a signed operator token. Send it as "Authorization: Bearer <token>"
to refresh, toggle card status or open a product.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := newSigner()
		if err != nil {
			return err
		}
		token, err := signer.Issue(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Check an operator token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := newSigner()
		if err != nil {
			return err
		}
		claims, err := signer.Decode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Operator: %s\nExpires:  %s\n", claims.Operator, claims.ExpiresAt.Local().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl minutes)")
	tokenCmd.AddCommand(tokenIssueCmd, tokenVerifyCmd)
	rootCmd.AddCommand(tokenCmd)
}
