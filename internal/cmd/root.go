package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cropyield/config"
	"cropyield/pkg/logging"
)

var (
	// appFs is swapped for an in-memory filesystem in tests.
	appFs afero.Fs = afero.NewOsFs()

	loadConfig = config.Load
)

var rootCmd = &cobra.Command{
	Use:   "yieldctl",
	Short: "Manage crop yield model artifacts and training records",
	Long: `yieldctl - offline tooling for the crop yield service
  - bootstrap artifacts from a historical dataset
  - import dataset rows as untrained records
  - run one reconciliation pass or list model snapshots`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL")
}

func logLevel(cmd *cobra.Command, cfg config.AppConfig) string {
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		return v
	}
	return cfg.LogLevel
}

var newLogger = logging.New
