package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the recipes",
	Long: `Generates an answer to the question from the most relevant recipes,
then validates every claim in the answer against those recipes. Claims
not found in any source are flagged so the answer can be trusted, or
not, at a glance.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&searchCuisine, "cuisine", "", "filter sources by cuisine")
	askCmd.Flags().StringVar(&searchDiet, "diet", "", "filter sources by diet")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	answer, err := answerService.Answer(cmd.Context(), args[0], searchFilters())
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println()
	cmd.Println(answer.Text)
	cmd.Println()

	if len(answer.Sources) > 0 {
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s (similarity %.2f)\n", src.Recipe.Title, src.Similarity)
		}
		cmd.Println()
	}

	v := answer.Validation
	cmd.Printf("Answer confidence: %s (%d/%d claims supported)\n",
		formatConfidence(v.Confidence), len(v.Claims)-len(v.Unsupported), len(v.Claims))
	for _, claim := range v.Unsupported {
		cmd.Printf("%s unsupported: %s\n", color.YellowString("!"), claim)
	}
	return nil
}

func formatConfidence(confidence float64) string {
	text := fmt.Sprintf("%.0f%%", confidence*100)
	switch {
	case confidence >= 0.8:
		return color.GreenString(text)
	case confidence >= 0.5:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}
