package filesystem

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.RecipeParser = (*Parser)(nil)

var (
	stepPattern   = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// Parser reads the flat recipe format:
//
//	Title: Spaghetti Aglio e Olio
//	Time: 15 min
//	Calories: 450
//	Diet: Vegetarian
//	Cuisine: Italian
//
//	Ingredients:
//	- 200g spaghetti
//
//	Steps:
//	1. Boil the pasta.
//
// Header fields come first, then an ingredients section of dash items,
// then a steps section of numbered lines.
type Parser struct{}

// NewParser creates a recipe parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts structured fields from recipe text. Unknown header
// keys and malformed lines are ignored rather than rejected; Validate
// exists for strict format checking.
func (p *Parser) Parse(path string, content []byte) (*domain.Recipe, error) {
	recipe := &domain.Recipe{
		ID:         domain.RecipeID(path),
		Path:       path,
		Title:      "Untitled",
		RawContent: string(content),
	}

	section := ""
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "ingredients:":
			section = "ingredients"
			continue
		case "steps:":
			section = "steps"
			continue
		}

		switch section {
		case "":
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "title":
				recipe.Title = value
			case "time":
				recipe.Time = value
			case "calories":
				if m := numberPattern.FindString(value); m != "" {
					recipe.Calories, _ = strconv.Atoi(m)
				}
			case "diet":
				recipe.Diet = value
			case "cuisine":
				recipe.Cuisine = value
			}
		case "ingredients":
			if strings.HasPrefix(line, "-") {
				recipe.Ingredients = append(recipe.Ingredients, strings.TrimSpace(line[1:]))
			}
		case "steps":
			if m := stepPattern.FindStringSubmatch(line); m != nil {
				recipe.Steps = append(recipe.Steps, m[2])
			} else if !strings.HasPrefix(line, "-") {
				recipe.Steps = append(recipe.Steps, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
	}
	return recipe, nil
}

// ToText renders a recipe back into the flat format Parse reads.
// Parsing the output yields the same structured fields, so it can
// materialise any version record as displayable text.
func (p *Parser) ToText(recipe *domain.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", recipe.Title)
	if recipe.Time != "" {
		fmt.Fprintf(&b, "Time: %s\n", recipe.Time)
	}
	if recipe.Calories > 0 {
		fmt.Fprintf(&b, "Calories: %d\n", recipe.Calories)
	}
	if recipe.Diet != "" {
		fmt.Fprintf(&b, "Diet: %s\n", recipe.Diet)
	}
	if recipe.Cuisine != "" {
		fmt.Fprintf(&b, "Cuisine: %s\n", recipe.Cuisine)
	}

	b.WriteString("\nIngredients:\n")
	for _, ing := range recipe.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}

	b.WriteString("\nSteps:\n")
	for i, step := range recipe.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}

// Validate reports format problems as human-readable messages.
func (p *Parser) Validate(content []byte) []string {
	lower := strings.ToLower(string(content))

	var problems []string
	if !strings.Contains(lower, "title:") {
		problems = append(problems, "missing 'Title:' field")
	}
	if !strings.Contains(lower, "time:") {
		problems = append(problems, "missing 'Time:' field")
	}
	if !strings.Contains(lower, "ingredients") {
		problems = append(problems, "missing ingredients section")
	}
	if !strings.Contains(lower, "steps") {
		problems = append(problems, "missing steps section")
	}
	return problems
}
