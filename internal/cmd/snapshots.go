package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cropyield/pkg/artifact"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List model snapshots, newest first",
	Long: `List the timestamped model snapshots in ARTIFACT_DIR, newest first. The
snapshot a server would boot from is marked with '*'.

Examples:
  yieldctl snapshots`,
	RunE: runSnapshots,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	s, err := artifact.Open(appFs, cfg.ArtifactDir, artifact.WithLatestSnapshot(cfg.LoadLatestSnapshot))
	if err != nil {
		return err
	}
	snaps, err := s.Snapshots()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tSIZE\tMODIFIED")
	for _, sn := range snaps {
		mark := ""
		if sn.Current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", mark, sn.ID, sn.Size, sn.ModTime.Format("2006-01-02 15:04:05"))
	}
	if s.Current().ID == artifact.BaseSnapshotID {
		fmt.Fprintf(w, "*\t%s\t\t\n", artifact.BaseSnapshotID)
	}
	return w.Flush()
}
