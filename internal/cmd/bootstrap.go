package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cropyield/pkg/artifact"
	"cropyield/pkg/bootstrap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Fit encoders, scalers and an initial model from a dataset",
	Long: `Fit the label encoders, both scalers and a fresh model from a dataset file
(CSV, XLSX or HTML table) and write them into ARTIFACT_DIR. Existing
timestamped snapshots are kept; the base artifacts are replaced.

Examples:
  yieldctl bootstrap --dataset yield_df.csv
  yieldctl bootstrap --dataset yield.xlsx --epochs 100 --hidden 64`,
	RunE: runBootstrap,
}

func init() {
	f := bootstrapCmd.Flags()
	f.String("dataset", "", "dataset file (required)")
	f.Int("hidden", 32, "LSTM units")
	f.Int("epochs", 50, "maximum epochs")
	f.String("scaler", artifact.ScalerStandard, "feature scaler: standard|minmax")
	f.Int64("seed", 42, "weight and shuffle seed")
	_ = bootstrapCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	path, _ := cmd.Flags().GetString("dataset")

	records, err := readDataset(path)
	if err != nil {
		return err
	}

	opts := bootstrap.DefaultOptions()
	opts.HiddenSize, _ = cmd.Flags().GetInt("hidden")
	opts.Fit.Epochs, _ = cmd.Flags().GetInt("epochs")
	opts.FeatureScaler, _ = cmd.Flags().GetString("scaler")
	opts.Seed, _ = cmd.Flags().GetInt64("seed")
	opts.Fit.Seed = opts.Seed

	b, hist, err := bootstrap.Fit(cmd.Context(), records, opts)
	if err != nil {
		return err
	}
	if err := artifact.WriteBundle(appFs, cfg.ArtifactDir, b); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote artifacts to %s: %d records, %d areas, %d items, %d epochs, best %s %.6f\n",
		cfg.ArtifactDir, len(records), b.AreaEncoder.Len(), b.ItemEncoder.Len(), hist.Epochs(), hist.Monitor, hist.BestLoss)
	return nil
}
