package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

var (
	searchTopK        int
	searchCuisine     string
	searchDiet        string
	searchMaxMinutes  int
	searchMaxCalories int
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the recipe index",
	Long: `Searches the recipe index semantically. The index is brought up to
date with the recipe directory before the query runs, so results always
reflect the current files.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringVar(&searchCuisine, "cuisine", "", "filter by cuisine")
	searchCmd.Flags().StringVar(&searchDiet, "diet", "", "filter by diet")
	searchCmd.Flags().IntVar(&searchMaxMinutes, "max-minutes", 0, "filter by maximum preparation time")
	searchCmd.Flags().IntVar(&searchMaxCalories, "max-calories", 0, "filter by maximum calories")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func searchFilters() domain.SearchFilters {
	return domain.SearchFilters{
		Cuisine:     searchCuisine,
		Diet:        searchDiet,
		MaxMinutes:  searchMaxMinutes,
		MaxCalories: searchMaxCalories,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	topK := searchTopK
	if topK <= 0 {
		topK = appConfig.Search.TopK
	}

	results, report, err := searchService.Search(cmd.Context(), args[0], searchFilters(), topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, struct {
			Results []domain.SearchResult   `json:"results"`
			Report  *domain.RetrievalReport `json:"report"`
		}{results, report})
	}

	if len(results) == 0 {
		cmd.Println("No recipes found.")
		printReportIssues(cmd, report)
		return nil
	}

	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s  %s\n", i+1, color.New(color.Bold).Sprint(r.Recipe.Title),
			confidenceLabel(r.Confidence))
		cmd.Printf("      similarity %.2f, match %.2f\n", r.Similarity, r.MatchScore)
		if detail := recipeDetailLine(r.Recipe); detail != "" {
			cmd.Printf("      %s\n", detail)
		}
		cmd.Println()
	}

	cmd.Printf("Retrieval confidence: %s (avg similarity %.2f, avg match %.2f)\n",
		confidenceLabel(report.Confidence), report.AvgSimilarity, report.AvgMatchScore)
	printReportIssues(cmd, report)
	return nil
}

func recipeDetailLine(r domain.Recipe) string {
	var parts []string
	if r.Cuisine != "" {
		parts = append(parts, r.Cuisine)
	}
	if r.Diet != "" {
		parts = append(parts, r.Diet)
	}
	if r.Time != "" {
		parts = append(parts, r.Time)
	}
	if r.Calories > 0 {
		parts = append(parts, fmt.Sprintf("%d kcal", r.Calories))
	}
	return strings.Join(parts, " | ")
}

func confidenceLabel(level domain.ConfidenceLevel) string {
	switch level {
	case domain.ConfidenceHigh:
		return color.GreenString(string(level))
	case domain.ConfidenceMedium:
		return color.YellowString(string(level))
	default:
		return color.RedString(string(level))
	}
}

func printReportIssues(cmd *cobra.Command, report *domain.RetrievalReport) {
	for _, issue := range report.Issues {
		cmd.Printf("%s %s\n", color.YellowString("!"), issue)
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
