package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var syncTimeout time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the index with the recipe directory",
	Long: `Runs one scan of the recipe directory and applies every detected
change to the store and the vector index.`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last sync cycle",
	RunE:  runSyncStatus,
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously synchronise until interrupted",
	Long: `Keeps the index synchronised with the recipe directory, rescanning
on filesystem events and on a polling interval. Runs until Ctrl-C.`,
	RunE: runSyncWatch,
}

func init() {
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 30*time.Second, "maximum time to wait for the cycle")
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncWatchCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	report, err := syncCoordinator.EnsureUpToDate(cmd.Context(), syncTimeout)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Scanned %d change(s), applied %d, failed %d (%.2fs)\n",
		report.Scanned, report.Applied, report.Failed,
		report.FinishedAt.Sub(report.StartedAt).Seconds())
	if report.Stale {
		cmd.Println("Cycle hit its deadline; remaining changes apply on the next sync.")
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, _ []string) error {
	status := syncCoordinator.Status()

	cmd.Printf("Running:  %v\n", status.Running)
	cmd.Printf("Scanning: %v\n", status.Scanning)

	if status.LastReport == nil {
		cmd.Println("No sync cycle has completed yet.")
		return nil
	}
	r := status.LastReport
	cmd.Printf("Last cycle %s: scanned %d, applied %d, failed %d, finished %s\n",
		r.BatchID, r.Scanned, r.Applied, r.Failed,
		r.FinishedAt.Format(time.RFC3339))
	return nil
}

func runSyncWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s, Ctrl-C to stop.\n", appConfig.Library.RecipesDir)
	if err := syncCoordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
