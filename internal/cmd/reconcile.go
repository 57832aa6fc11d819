package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"cropyield/internal/app"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Train once on every untrained record",
	Long: `Run a single reconciliation pass: train on all records with is_trained=false,
save a new snapshot and mark the records trained. Prints the outcome as JSON.

Do not run this while a server with the loop enabled is using the same
artifact directory; each process swaps only its own model.

Examples:
  yieldctl reconcile`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(logLevel(cmd, cfg))
	defer log.Sync()

	a, err := app.New(cfg, appFs, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Reconciler.Tick(cmd.Context())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
