package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cropyield/database"
	"cropyield/entities"
	"cropyield/pkg/dataset"
	recordRepoImp "cropyield/pkg/record/repositoryImp"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Insert every dataset row as an untrained record",
	Long: `Insert every row of a dataset file (CSV, XLSX or HTML table) into the
record store with is_trained=false. The next reconciliation pass trains on them.

Examples:
  yieldctl import yield_df.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func readDataset(path string) ([]entities.TrainingInput, error) {
	format, err := dataset.FormatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := appFs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.Load(f, format)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	inputs, err := readDataset(args[0])
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	rows := make([]entities.Record, len(inputs))
	for i, in := range inputs {
		rows[i] = in.Record()
	}
	if err := recordRepoImp.New(db).BulkCreate(cmd.Context(), rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", len(rows))
	return nil
}
