package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	recipesJSON    bool
	changesLimit   int
	showRawContent bool
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect the recipe library",
	RunE:  runRecipesList,
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all active recipes",
	RunE:  runRecipesList,
}

var recipesShowCmd = &cobra.Command{
	Use:   "show [recipe-id]",
	Short: "Show a recipe",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipesShow,
}

var recipesChangesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent changes across the library",
	RunE:  runRecipesChanges,
}

var recipesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE:  runRecipesStats,
}

var recipesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a recipe file against the expected format",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipesValidate,
}

func init() {
	recipesCmd.PersistentFlags().BoolVar(&recipesJSON, "json", false, "output as JSON")
	recipesChangesCmd.Flags().IntVarP(&changesLimit, "limit", "n", 20, "maximum number of changes")
	recipesShowCmd.Flags().BoolVar(&showRawContent, "raw", false, "print the original file text")
	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesShowCmd)
	recipesCmd.AddCommand(recipesChangesCmd)
	recipesCmd.AddCommand(recipesStatsCmd)
	recipesCmd.AddCommand(recipesValidateCmd)
	rootCmd.AddCommand(recipesCmd)
}

func runRecipesList(cmd *cobra.Command, _ []string) error {
	recipes, err := libraryService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	if recipesJSON {
		return outputJSON(cmd, recipes)
	}

	if len(recipes) == 0 {
		cmd.Println("No recipes in the library.")
		return nil
	}

	for _, r := range recipes {
		cmd.Printf("  %s  %s (v%d)\n", r.ID, color.New(color.Bold).Sprint(r.Title), r.Version)
		if detail := recipeDetailLine(r); detail != "" {
			cmd.Printf("  %*s  %s\n", len(r.ID), "", detail)
		}
	}
	cmd.Printf("\n%d recipe(s).\n", len(recipes))
	return nil
}

func runRecipesShow(cmd *cobra.Command, args []string) error {
	recipe, err := libraryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}

	if recipesJSON {
		return outputJSON(cmd, recipe)
	}
	if showRawContent {
		cmd.Print(recipe.RawContent)
		return nil
	}

	cmd.Printf("%s (v%d, %s)\n\n", recipe.ID, recipe.Version, recipe.Path)
	cmd.Print(recipeParser.ToText(recipe))
	return nil
}

func runRecipesChanges(cmd *cobra.Command, _ []string) error {
	changes, err := libraryService.Changes(cmd.Context(), changesLimit)
	if err != nil {
		return fmt.Errorf("list changes: %w", err)
	}

	if recipesJSON {
		return outputJSON(cmd, changes)
	}

	if len(changes) == 0 {
		cmd.Println("No changes recorded.")
		return nil
	}
	for _, rec := range changes {
		printVersionRecord(cmd, rec, true)
	}
	return nil
}

func runRecipesValidate(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read recipe file: %w", err)
	}

	problems := recipeParser.Validate(content)
	if len(problems) == 0 {
		cmd.Printf("%s %s is well-formed.\n", color.GreenString("ok"), args[0])
		return nil
	}
	for _, problem := range problems {
		cmd.Printf("%s %s\n", color.RedString("!"), problem)
	}
	return fmt.Errorf("%d format problem(s) in %s", len(problems), args[0])
}

func runRecipesStats(cmd *cobra.Command, _ []string) error {
	stats, err := libraryService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("library stats: %w", err)
	}

	if recipesJSON {
		return outputJSON(cmd, stats)
	}

	cmd.Printf("Recipes:        %d\n", stats.TotalRecipes)
	cmd.Printf("Indexed:        %d\n", stats.IndexedRecipes)
	cmd.Printf("Recent changes: %d\n", stats.RecentChanges)

	if len(stats.CuisineCounts) > 0 {
		cuisines := make([]string, 0, len(stats.CuisineCounts))
		for cuisine := range stats.CuisineCounts {
			cuisines = append(cuisines, cuisine)
		}
		sort.Strings(cuisines)

		cmd.Println("Cuisines:")
		for _, cuisine := range cuisines {
			cmd.Printf("  %-16s %d\n", cuisine, stats.CuisineCounts[cuisine])
		}
	}
	return nil
}
