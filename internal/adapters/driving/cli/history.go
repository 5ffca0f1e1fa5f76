package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [recipe-id]",
	Short: "Show a recipe's version history",
	Long: `Prints every version of the recipe, oldest first. The history is
append-only: updates, deletions and rollbacks each add a record and
never rewrite earlier ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	records, err := libraryService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if historyJSON {
		return outputJSON(cmd, records)
	}

	for _, rec := range records {
		printVersionRecord(cmd, rec, false)
	}
	return nil
}

func printVersionRecord(cmd *cobra.Command, rec domain.VersionRecord, withID bool) {
	kind := string(rec.Kind)
	switch rec.Kind {
	case domain.ChangeKindCreate:
		kind = color.GreenString(kind)
	case domain.ChangeKindDelete:
		kind = color.RedString(kind)
	case domain.ChangeKindRollback:
		kind = color.CyanString(kind)
	}

	line := fmt.Sprintf("  v%-3d %-8s %s", rec.Version, kind, rec.CreatedAt.Format(time.RFC3339))
	if withID {
		line = fmt.Sprintf("  %s %s", rec.RecipeID, line)
	}
	if rec.RestoredFrom > 0 {
		line += fmt.Sprintf(" (restored from v%d)", rec.RestoredFrom)
	}
	cmd.Println(line)
}
