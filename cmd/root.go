package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"rfid-access-console/internal/backend"
	"rfid-access-console/internal/config"
	"rfid-access-console/internal/storage"
	"rfid-access-console/internal/tracker"
)

var (
	cfgFile  string
	cfg      *config.Config
	provider storage.Provider
)

var rootCmd = &cobra.Command{
	Use:   "rfid-access-console",
	Short: "RFID access state console",
	Long: `Reconciles products, cards, guests, staff and the RFID reader log from the
property backend into one consistent access view, and toggles card status.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to load .env", "error", err)
		}

		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		initCLILogger()

		provider, err = storage.NewProvider(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Cleanup
		if provider != nil {
			provider.Close()
		}
	},
}

// newTracker wires the backend client and the audit log into a tracker.
func newTracker() (*tracker.Tracker, error) {
	client, err := backend.NewHTTPClient(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return tracker.New(client, provider), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./instance/config.yaml or ./config.yaml)")
}
