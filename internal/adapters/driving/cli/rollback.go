package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback [recipe-id] [version]",
	Short: "Restore an earlier version of a recipe",
	Long: `Restores the content of the given version as a new version at the
head of the recipe's history. Earlier versions are never modified, so a
rollback can itself be rolled back.`,
	Args: cobra.ExactArgs(2),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[1])
	}

	record, err := libraryService.Rollback(cmd.Context(), args[0], version)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	cmd.Printf("Restored v%d of %s as v%d.\n", record.RestoredFrom, record.RecipeID, record.Version)
	return nil
}
