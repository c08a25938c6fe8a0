package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/tracker"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync markdown files into the store",
}

var syncTrackerCmd = &cobra.Command{
	Use:   "tracker <file>",
	Short: "Upsert tasks from the tracker table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		records, skipped := tracker.ParseTracker(string(markdown))
		out := cmd.OutOrStdout()
		for _, s := range skipped {
			fmt.Fprintf(out, "%s line %d: %s\n", color.YellowString("skip"), s.Line, s.Reason)
		}
		if len(records) == 0 {
			return fmt.Errorf("no tracker rows found in %s", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		syncer := tracker.NewSyncer(repository.NewTaskRepository(db), repository.NewImprovementRepository(db))
		report := syncer.SyncTasks(cmd.Context(), records)
		printReport(out, "tasks", report)
		if report.Failed > 0 {
			return fmt.Errorf("%d task(s) failed to sync", report.Failed)
		}
		return nil
	},
}

var syncProposalsCmd = &cobra.Command{
	Use:   "proposals <file>",
	Short: "Upsert improvement proposals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		records := tracker.ParseProposals(string(markdown))
		if len(records) == 0 {
			return fmt.Errorf("no proposals found in %s", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		syncer := tracker.NewSyncer(repository.NewTaskRepository(db), repository.NewImprovementRepository(db))
		report := syncer.SyncImprovements(cmd.Context(), records)
		printReport(cmd.OutOrStdout(), "improvements", report)
		if report.Failed > 0 {
			return fmt.Errorf("%d proposal(s) failed to sync", report.Failed)
		}
		return nil
	},
}

func printReport(w io.Writer, what string, r *tracker.Report) {
	fmt.Fprintf(w, "%s %s: %s created, %s updated, %d skipped, %s failed\n",
		color.CyanString("synced"), what,
		color.GreenString("%d", r.Created),
		color.GreenString("%d", r.Updated),
		r.Skipped,
		color.RedString("%d", r.Failed))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s %s\n", color.RedString("✗"), e)
	}
}

func init() {
	syncCmd.AddCommand(syncTrackerCmd)
	syncCmd.AddCommand(syncProposalsCmd)
}
